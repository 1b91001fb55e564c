package pmm

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/Zafnok/hobby-os/kernel/hal/boot"
	"github.com/Zafnok/hobby-os/kernel/mem"
)

// mmapBacking allocates a page-aligned anonymous mapping to stand in for
// physical memory, the same way a real frame's backing store is always
// page-aligned — a plain make([]byte, ...) only happens to be.
func mmapBacking(t *testing.T, n int) []byte {
	t.Helper()
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	t.Cleanup(func() { unix.Munmap(b) })
	return b
}

// fakeBootInfo implements boot.Info with a caller-supplied memory map and
// HHDM offset, standing in for the bootloader handoff in tests.
type fakeBootInfo struct {
	memmap     []boot.MemoryMapEntry
	hhdmOffset uintptr
}

func (f *fakeBootInfo) BaseRevisionSupported() bool           { return true }
func (f *fakeBootInfo) MemoryMap() []boot.MemoryMapEntry      { return f.memmap }
func (f *fakeBootInfo) HHDMOffset() uintptr                   { return f.hhdmOffset }
func (f *fakeBootInfo) ExecutableAddress() (uintptr, uintptr) { return 0, 0 }
func (f *fakeBootInfo) Modules() []boot.Module                { return nil }
func (f *fakeBootInfo) Framebuffer() (boot.Framebuffer, bool) { return boot.Framebuffer{}, false }

func TestInitReservesBitmapAndFirstMiB(t *testing.T) {
	const backingPages = 600 // > 1MiB / PageSize(256) so some pages survive reservation
	backing := mmapBacking(t, backingPages*int(mem.PageSize))

	boot.SetInfo(&fakeBootInfo{
		memmap: []boot.MemoryMapEntry{
			{Base: 0, Length: uint64(backingPages) * uint64(mem.PageSize), Type: boot.RegionUsable},
		},
		hhdmOffset: uintptr(unsafe.Pointer(&backing[0])),
	})
	defer boot.SetInfo(nil)

	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := &Allocator
	if exp := uint64(backingPages); a.totalPages != exp {
		t.Fatalf("expected totalPages %d; got %d", exp, a.totalPages)
	}

	for p := uint64(0); p < reservedBelow1MiB/uint64(mem.PageSize); p++ {
		if !a.testBit(p) {
			t.Errorf("expected page %d (below 1MiB) to be reserved", p)
		}
	}

	someFreePage := uint64(300)
	if a.testBit(someFreePage) {
		t.Errorf("expected page %d to be free after init", someFreePage)
	}
}

func TestInitErrorsWithoutBootInfo(t *testing.T) {
	boot.SetInfo(nil)
	if err := Init(); err != errMissingBootInfo {
		t.Fatalf("expected errMissingBootInfo; got %v", err)
	}
}

func newTestAllocator(totalPages uint64) *BitmapAllocator {
	return &BitmapAllocator{
		bitmap:     make([]byte, (totalPages+7)/8),
		totalPages: totalPages,
	}
}

func TestAllocatePagesFindsFirstFreeRun(t *testing.T) {
	a := newTestAllocator(16)
	a.setRange(0, 4) // pages 0-3 reserved

	base, err := a.AllocatePages(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := uintptr(4 * uint64(mem.PageSize)); base != exp {
		t.Fatalf("expected base %#x; got %#x", exp, base)
	}
	if !a.testBit(4) || !a.testBit(5) {
		t.Errorf("expected pages 4,5 to be marked reserved after allocation")
	}
	if a.lastUsedIndex != 6 {
		t.Errorf("expected cursor to advance to 6; got %d", a.lastUsedIndex)
	}
}

func TestAllocatePagesWrapsAroundCursor(t *testing.T) {
	a := newTestAllocator(8)
	a.lastUsedIndex = 6
	a.setRange(6, 8) // exhaust the tail so only a low run remains free

	base, err := a.AllocatePages(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := uintptr(0); base != exp {
		t.Fatalf("expected wraparound to find base 0; got %#x", base)
	}
}

func TestAllocatePagesOutOfMemory(t *testing.T) {
	a := newTestAllocator(4)
	a.setRange(0, 4)

	if _, err := a.AllocatePages(1); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory; got %v", err)
	}
}

func TestFreePagesRetreatsCursor(t *testing.T) {
	a := newTestAllocator(8)
	a.setRange(0, 8)
	a.lastUsedIndex = 8

	a.FreePages(2*uintptr(mem.PageSize), 2)

	if a.testBit(2) || a.testBit(3) {
		t.Errorf("expected pages 2,3 to be free after FreePages")
	}
	if a.lastUsedIndex != 2 {
		t.Errorf("expected cursor to retreat to 2; got %d", a.lastUsedIndex)
	}

	base, err := a.AllocatePages(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base != 2*uintptr(mem.PageSize) {
		t.Errorf("expected freed page 2 to be reused first; got base %#x", base)
	}
}
