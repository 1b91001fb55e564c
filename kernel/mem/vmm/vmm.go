// Package vmm implements 4-level x86_64 paging on top of the bootloader's
// higher-half direct map. Unlike a design built around recursively
// self-mapped page tables, every table here is reached by adding the HHDM
// offset to its physical frame address — the bootloader guarantees that
// mapping is valid for the whole of physical memory before the kernel's own
// page tables are even built, so intermediate tables never need a temporary
// mapping to be initialized.
package vmm

import (
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/cpu"
	"github.com/Zafnok/hobby-os/kernel/mem"
)

var (
	// ErrInvalidMapping is returned when walking to a virtual address that
	// has no present leaf entry.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address is not mapped"}

	// errHugePageConflict is returned when a mapping request of one page
	// size walks into an existing mapping of the other size.
	errHugePageConflict = &kernel.Error{Module: "vmm", Message: "address falls inside a conflicting page-size mapping"}

	// the following are mocked by tests and inlined by the compiler when
	// building the kernel.
	allocPageFn     FrameAllocatorFn
	flushTLBEntryFn = cpu.FlushTLBEntry
)

// FrameAllocatorFn allocates a single physical page frame, in the same
// shape as pmm.AllocatePage so the vmm package never needs to import pmm
// directly (pmm has no dependency on vmm, and this keeps it that way).
type FrameAllocatorFn func() (uintptr, *kernel.Error)

// SetFrameAllocator registers the function vmm uses to obtain physical
// frames for new intermediate page tables. Called once from Kmain with
// pmm.AllocatePage.
func SetFrameAllocator(fn FrameAllocatorFn) {
	allocPageFn = fn
}

// AddressSpace is a single 4-level page table hierarchy rooted at a PML4
// frame. The kernel normally has exactly one live AddressSpace, reachable
// via Active, but the type itself carries no global state so tests can
// construct throwaway instances.
type AddressSpace struct {
	pml4Phys   uintptr
	hhdmOffset uintptr
}

// active is the address space currently loaded into CR3.
var active *AddressSpace

// Active returns the address space most recently installed via Activate.
func Active() *AddressSpace {
	return active
}

// physToVirt adds the HHDM offset to a physical address. Every page table
// frame, regardless of paging level, is accessed this way.
func (as *AddressSpace) physToVirt(phys uintptr) uintptr {
	return phys + as.hhdmOffset
}

// PhysToVirt exposes the address space's HHDM translation to callers that
// need to touch a physical frame's contents directly (the PMM bitmap, the
// ELF loader staging a module's bytes, ...).
func (as *AddressSpace) PhysToVirt(phys uintptr) uintptr {
	return as.physToVirt(phys)
}

func (as *AddressSpace) tableEntry(tablePhys, index uintptr) *pageTableEntry {
	tableVirt := as.physToVirt(tablePhys)
	return (*pageTableEntry)(unsafe.Pointer(tableVirt + index<<mem.PointerShift))
}

// leafEntry descends the page tables for virtAddr and returns the entry
// that maps it — either a PT entry (level == pageLevels-1) or, if the walk
// encounters an already-present 2 MiB mapping at the PD level, that PD
// entry (level == pdLevel). With allocateMissing set, absent intermediate
// tables are allocated and zeroed in place; without it, an absent
// intermediate table aborts the walk with ErrInvalidMapping.
func (as *AddressSpace) leafEntry(virtAddr uintptr, allocateMissing bool) (*pageTableEntry, int, *kernel.Error) {
	tablePhys := as.pml4Phys

	for level := 0; level < pageLevels; level++ {
		index := entryIndexAt(virtAddr, level)
		pte := as.tableEntry(tablePhys, index)

		if level == pdLevel && pte.HasFlags(FlagPresent) && pte.HasFlags(FlagHugePage) {
			return pte, level, nil
		}
		if level == pageLevels-1 {
			return pte, level, nil
		}

		if !pte.HasFlags(FlagPresent) {
			if !allocateMissing {
				return nil, 0, ErrInvalidMapping
			}

			newTable, err := allocPageFn()
			if err != nil {
				return nil, 0, err
			}
			mem.Memset(as.physToVirt(newTable), 0, mem.PageSize)

			*pte = 0
			pte.SetFrameAddress(newTable)
			pte.SetFlags(FlagPresent | FlagRW)
		} else if pte.HasFlags(FlagHugePage) {
			return nil, 0, errHugePageConflict
		}

		tablePhys = pte.FrameAddress()
	}

	return nil, 0, ErrInvalidMapping
}

// Map installs a 4 KiB mapping from virtAddr to physAddr with the given
// flags, allocating any missing intermediate page tables along the way.
// Map returns errHugePageConflict if virtAddr already falls inside a 2 MiB
// mapping.
func (as *AddressSpace) Map(virtAddr, physAddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	leaf, level, err := as.leafEntry(virtAddr, true)
	if err != nil {
		return err
	}
	if level != pageLevels-1 {
		return errHugePageConflict
	}

	*leaf = 0
	leaf.SetFrameAddress(physAddr)
	leaf.SetFlags(FlagPresent | flags)
	flushTLBEntryFn(virtAddr)
	return nil
}

// MapHugePage installs a 2 MiB mapping from virtAddr to physAddr at the PD
// level. Both addresses must be 2 MiB aligned; callers are responsible for
// that alignment, mirroring the PMM's page-granularity contract.
func (as *AddressSpace) MapHugePage(virtAddr, physAddr uintptr, flags PageTableEntryFlag) *kernel.Error {
	tablePhys := as.pml4Phys
	var leaf *pageTableEntry

	for level := 0; level <= pdLevel; level++ {
		index := entryIndexAt(virtAddr, level)
		pte := as.tableEntry(tablePhys, index)

		if level == pdLevel {
			leaf = pte
			break
		}

		if !pte.HasFlags(FlagPresent) {
			newTable, err := allocPageFn()
			if err != nil {
				return err
			}
			mem.Memset(as.physToVirt(newTable), 0, mem.PageSize)

			*pte = 0
			pte.SetFrameAddress(newTable)
			pte.SetFlags(FlagPresent | FlagRW)
		} else if pte.HasFlags(FlagHugePage) {
			return errHugePageConflict
		}

		tablePhys = pte.FrameAddress()
	}

	*leaf = 0
	leaf.SetFrameAddress(physAddr)
	leaf.SetFlags(FlagPresent | FlagHugePage | flags)
	flushTLBEntryFn(virtAddr)
	return nil
}

// SetPageKey installs a PKS protection key on the entry mapping virtAddr,
// whether that mapping is a 4 KiB or 2 MiB page. The mapping must already
// exist.
func (as *AddressSpace) SetPageKey(virtAddr uintptr, key uint8) *kernel.Error {
	leaf, _, err := as.leafEntry(virtAddr, false)
	if err != nil {
		return err
	}
	if !leaf.HasFlags(FlagPresent) {
		return ErrInvalidMapping
	}

	leaf.SetKey(key)
	flushTLBEntryFn(virtAddr)
	return nil
}
