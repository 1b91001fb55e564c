// Package heap implements a segregated free-list allocator for arbitrary
// kernel allocations, layered over the PMM and reached through the HHDM
// the way every other subsystem below it reaches physical memory. There is
// no general-purpose allocator until this package's Init has run; before
// that, kernel code either doesn't allocate or reaches into the PMM/VMM
// directly.
package heap

import (
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/hal/boot"
	"github.com/Zafnok/hobby-os/kernel/mem"
	"github.com/Zafnok/hobby-os/kernel/mem/pmm"
)

// sizeClassCount is the number of segregated free lists: 32, 64, 128, 256,
// 512, 1024, 2048 bytes.
const sizeClassCount = 7

// minClassSize and maxClassSize bound the size classes the free lists
// cover; requests above maxClassSize pass straight through to the PMM.
const (
	minClassSize = mem.Size(32)
	maxClassSize = mem.Size(2048)
)

var (
	errMissingBootInfo = &kernel.Error{Module: "heap", Message: "no boot info available"}

	hhdmOffset uintptr

	// freeLists holds the LIFO singly-linked list head for each size
	// class. A free block stores its own "next" pointer in its first
	// word, so these lists carry zero external bookkeeping overhead.
	freeLists [sizeClassCount]uintptr

	// allocPagesFn/freePagesFn are mocked by tests and inlined by the
	// compiler when building the kernel.
	allocPagesFn = pmm.AllocatePages
	freePagesFn  = pmm.FreePages
)

// Init records the HHDM offset the heap uses to turn PMM-allocated
// physical pages into accessible virtual addresses. It must run after PMM
// and VMM bring-up.
func Init() *kernel.Error {
	info := boot.Active()
	if info == nil {
		return errMissingBootInfo
	}
	hhdmOffset = info.HHDMOffset()
	return nil
}

// sizeClass rounds size up to at least minClassSize and then up to the
// next power of two, returning both the resulting size and its free-list
// index, or ok=false if size belongs to the large-allocation path.
func sizeClass(size mem.Size) (s mem.Size, index int, ok bool) {
	s = size
	if s < minClassSize {
		s = minClassSize
	}
	s = nextPowerOfTwo(s)
	if s > maxClassSize {
		return s, -1, false
	}

	index = 0
	for c := minClassSize; c < s; c <<= 1 {
		index++
	}
	return s, index, true
}

func nextPowerOfTwo(n mem.Size) mem.Size {
	p := mem.Size(1)
	for p < n {
		p <<= 1
	}
	return p
}

func pagesFor(size mem.Size) uint64 {
	return (uint64(size) + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
}

func physToVirt(phys uintptr) uintptr { return phys + hhdmOffset }
func virtToPhys(virt uintptr) uintptr { return virt - hhdmOffset }

func nextPtr(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

func setNextPtr(addr, next uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = next
}

// refill carves a freshly PMM-allocated page into blocks of size s and
// links them onto the size class's free list, tail-first, so the lowest
// offset within the page ends up at the head.
func refill(classIndex int, s mem.Size) *kernel.Error {
	phys, err := allocPagesFn(1)
	if err != nil {
		return err
	}
	virt := physToVirt(phys)

	blocksPerPage := uint64(mem.PageSize) / uint64(s)
	head := freeLists[classIndex]
	for i := int64(blocksPerPage) - 1; i >= 0; i-- {
		block := virt + uintptr(i)*uintptr(s)
		setNextPtr(block, head)
		head = block
	}
	freeLists[classIndex] = head
	return nil
}

// Alloc returns a block of at least size bytes. Small-class blocks are
// zeroed before being handed back; large (>2048 byte) allocations are
// returned uninitialised.
func Alloc(size mem.Size) (uintptr, *kernel.Error) {
	s, index, small := sizeClass(size)
	if !small {
		phys, err := allocPagesFn(pagesFor(s))
		if err != nil {
			return 0, err
		}
		return physToVirt(phys), nil
	}

	if freeLists[index] == 0 {
		if err := refill(index, s); err != nil {
			return 0, err
		}
	}

	addr := freeLists[index]
	freeLists[index] = nextPtr(addr)
	mem.Memset(addr, 0, s)
	return addr, nil
}

// Free returns a block previously obtained from Alloc with the same size.
// Callers must pass the size they originally requested; the heap does not
// track live allocation sizes itself.
func Free(addr uintptr, size mem.Size) {
	s, index, small := sizeClass(size)
	if !small {
		freePagesFn(virtToPhys(addr), pagesFor(s))
		return
	}

	setNextPtr(addr, freeLists[index])
	freeLists[index] = addr
}
