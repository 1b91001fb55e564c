// Package pmm implements the physical memory manager: a bitmap-based
// contiguous-range allocator over the memory map the bootloader reports.
// Unlike the VMM, the PMM does not need its own page tables to bootstrap
// itself — the bootloader's handoff already maps all of physical memory at
// a fixed HHDM offset, so the bitmap can be written to directly through
// that window before the kernel's own page tables exist.
package pmm

import (
	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/hal/boot"
	"github.com/Zafnok/hobby-os/kernel/mem"
)

var (
	// ErrOutOfMemory is returned when no run of free pages large enough
	// to satisfy a request can be found.
	ErrOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of physical memory"}

	// errMissingBootInfo is fatal: without a memory map there is nothing
	// for the PMM to manage.
	errMissingBootInfo = &kernel.Error{Module: "pmm", Message: "no boot memory map available"}

	// Allocator is the singleton bitmap allocator used by the rest of the
	// kernel. It is constructed once by Init and never replaced.
	Allocator BitmapAllocator
)

// reservedBelow1MiB is the legacy BIOS/VGA region that must never be handed
// out even though it often falls inside a region marked usable.
const reservedBelow1MiB = 1 * uint64(mem.Mb)

// BitmapAllocator hands out physically contiguous page ranges from a single
// flat bit array covering all of addressable RAM, with bit=1 meaning "not
// free". It uses a roving search cursor so that successive allocations
// without intervening frees do not repeatedly rescan already-exhausted low
// memory.
type BitmapAllocator struct {
	hhdmOffset uintptr

	bitmap     []byte
	totalPages uint64

	// lastUsedIndex is the page index the next allocation search starts
	// from. It advances past every successful allocation and retreats to
	// a freed base if that base is lower, which is a heuristic, not a
	// guarantee of lowest-address-first allocation.
	lastUsedIndex uint64
}

// Init builds the bitmap allocator from the bootloader-reported memory map.
// It is fatal (via kernel.Panic, triggered by the caller) to call this
// without a registered boot.Info, mirroring the spec's "missing bootloader
// response at init" failure mode.
func Init() *kernel.Error {
	info := boot.Active()
	if info == nil {
		return errMissingBootInfo
	}

	a := &Allocator
	a.hhdmOffset = info.HHDMOffset()

	maxAddr := uint64(0)
	boot.VisitMemRegions(func(r *boot.MemoryMapEntry) bool {
		switch r.Type {
		case boot.RegionUsable, boot.RegionBootloaderReclaimable, boot.RegionExecutableAndModules:
			if end := r.Base + r.Length; end > maxAddr {
				maxAddr = end
			}
		}
		return true
	})

	a.totalPages = maxAddr / uint64(mem.PageSize)
	bitmapBytes := (a.totalPages + 7) / 8

	bitmapPhysAddr, err := a.placeBitmap(bitmapBytes)
	if err != nil {
		return err
	}

	a.bitmap = a.byteSlice(bitmapPhysAddr, bitmapBytes)
	for i := range a.bitmap {
		a.bitmap[i] = 0xFF
	}

	boot.VisitMemRegions(func(r *boot.MemoryMapEntry) bool {
		if r.Type != boot.RegionUsable {
			return true
		}
		startPage := r.Base / uint64(mem.PageSize)
		endPage := (r.Base + r.Length) / uint64(mem.PageSize)
		a.clearRange(startPage, endPage)
		return true
	})

	bitmapStartPage := bitmapPhysAddr / uint64(mem.PageSize)
	bitmapPageCount := (bitmapBytes + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
	a.setRange(bitmapStartPage, bitmapStartPage+bitmapPageCount)
	a.setRange(0, reservedBelow1MiB/uint64(mem.PageSize))

	return nil
}

// placeBitmap finds the first usable region large enough to hold the
// bitmap and returns its page-aligned base physical address.
func (a *BitmapAllocator) placeBitmap(bitmapBytes uint64) (uint64, *kernel.Error) {
	needed := (bitmapBytes + uint64(mem.PageSize) - 1) &^ (uint64(mem.PageSize) - 1)

	var (
		chosen uint64
		found  bool
	)
	boot.VisitMemRegions(func(r *boot.MemoryMapEntry) bool {
		if r.Type != boot.RegionUsable {
			return true
		}
		base := (r.Base + uint64(mem.PageSize) - 1) &^ (uint64(mem.PageSize) - 1)
		end := (r.Base + r.Length) &^ (uint64(mem.PageSize) - 1)
		if end > base && end-base >= needed {
			chosen = base
			found = true
			return false
		}
		return true
	})

	if !found {
		return 0, ErrOutOfMemory
	}
	return chosen, nil
}

// physToVirt mirrors vmm's AddressSpace.PhysToVirt without importing the vmm package
// (which itself depends on pmm for frame allocation); the PMM only ever
// needs the offset, not general translation.
func (a *BitmapAllocator) physToVirt(addr uint64) uintptr {
	return uintptr(addr) + a.hhdmOffset
}

func (a *BitmapAllocator) byteSlice(physAddr, length uint64) []byte {
	return mem.ByteSliceAt(a.physToVirt(physAddr), mem.Size(length))
}

func (a *BitmapAllocator) testBit(page uint64) bool {
	return a.bitmap[page/8]&(1<<(page%8)) != 0
}

func (a *BitmapAllocator) setBit(page uint64) {
	a.bitmap[page/8] |= 1 << (page % 8)
}

func (a *BitmapAllocator) clearBit(page uint64) {
	a.bitmap[page/8] &^= 1 << (page % 8)
}

func (a *BitmapAllocator) setRange(start, end uint64) {
	for p := start; p < end && p < a.totalPages; p++ {
		a.setBit(p)
	}
}

func (a *BitmapAllocator) clearRange(start, end uint64) {
	for p := start; p < end && p < a.totalPages; p++ {
		a.clearBit(p)
	}
}

// findRun scans [from, to) for the first run of n consecutive clear bits
// and returns its starting page index, or ok=false if none exists.
func (a *BitmapAllocator) findRun(from, to, n uint64) (start uint64, ok bool) {
	run := uint64(0)
	for p := from; p < to; p++ {
		if a.testBit(p) {
			run = 0
			continue
		}
		if run == 0 {
			start = p
		}
		run++
		if run == n {
			return start, true
		}
	}
	return 0, false
}

// AllocatePages reserves n contiguous physical pages and returns the base
// address of the run, or ErrOutOfMemory if no run of that size is free.
// The search starts at the roving cursor and wraps around at most once.
func (a *BitmapAllocator) AllocatePages(n uint64) (uintptr, *kernel.Error) {
	if n == 0 {
		n = 1
	}

	start, ok := a.findRun(a.lastUsedIndex, a.totalPages, n)
	if !ok {
		start, ok = a.findRun(0, a.lastUsedIndex, n)
	}
	if !ok {
		return 0, ErrOutOfMemory
	}

	a.setRange(start, start+n)
	a.lastUsedIndex = start + n

	return uintptr(start * uint64(mem.PageSize)), nil
}

// AllocatePage is shorthand for AllocatePages(1).
func (a *BitmapAllocator) AllocatePage() (uintptr, *kernel.Error) {
	return a.AllocatePages(1)
}

// FreePages clears the bits for the n pages starting at base. Page indices
// beyond the bitmap's range are silently ignored. If base is lower than the
// current search cursor, the cursor retreats to base so that the freed
// range is found by the next allocation.
func (a *BitmapAllocator) FreePages(base uintptr, n uint64) {
	startPage := uint64(base) / uint64(mem.PageSize)
	a.clearRange(startPage, startPage+n)

	if startPage < a.lastUsedIndex {
		a.lastUsedIndex = startPage
	}
}

// AllocatePages allocates n contiguous pages from the singleton Allocator.
func AllocatePages(n uint64) (uintptr, *kernel.Error) { return Allocator.AllocatePages(n) }

// AllocatePage allocates a single page from the singleton Allocator.
func AllocatePage() (uintptr, *kernel.Error) { return Allocator.AllocatePage() }

// FreePages returns n pages starting at base to the singleton Allocator.
func FreePages(base uintptr, n uint64) { Allocator.FreePages(base, n) }
