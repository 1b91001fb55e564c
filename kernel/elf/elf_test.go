package elf

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/mem"
	"github.com/Zafnok/hobby-os/kernel/mem/vmm"
)

// buildImage assembles a minimal valid ELF64 executable with a single
// PT_LOAD segment carrying payload, memsz bytes of virtual span, at
// virtual address vaddr.
func buildImage(vaddr uint64, payload []byte, memsz uint64) []byte {
	const phOff = fileHeaderSize
	image := make([]byte, phOff+progHeaderSize+len(payload))

	image[0], image[1], image[2], image[3] = 0x7f, 'E', 'L', 'F'
	image[4] = classELF64
	image[5] = dataLittle
	binary.LittleEndian.PutUint16(image[16:18], typeExec)
	binary.LittleEndian.PutUint16(image[18:20], machineAMD64)
	binary.LittleEndian.PutUint64(image[24:32], vaddr+4) // entry point
	binary.LittleEndian.PutUint64(image[32:40], uint64(phOff))
	binary.LittleEndian.PutUint16(image[54:56], progHeaderSize)
	binary.LittleEndian.PutUint16(image[56:58], 1)

	ph := image[phOff : phOff+progHeaderSize]
	binary.LittleEndian.PutUint32(ph[0:4], ptLoad)
	binary.LittleEndian.PutUint64(ph[8:16], uint64(phOff+progHeaderSize))
	binary.LittleEndian.PutUint64(ph[16:24], vaddr)
	binary.LittleEndian.PutUint64(ph[32:40], uint64(len(payload)))
	binary.LittleEndian.PutUint64(ph[40:48], memsz)

	copy(image[phOff+progHeaderSize:], payload)
	return image
}

// withBackingMemory fakes a physical/virtual identity-mapped region via an
// ordinary Go byte slice, mirroring the pattern used in the heap and vmm
// test files.
func withBackingMemory(t *testing.T, pages int) (uintptr, func()) {
	t.Helper()
	backing := make([]byte, pages*int(mem.PageSize))
	base := uintptr(unsafe.Pointer(&backing[0]))

	next := uintptr(0)
	allocPageFn = func() (uintptr, *kernel.Error) {
		if next >= uintptr(pages)*uintptr(mem.PageSize) {
			return 0, &kernel.Error{Module: "test", Message: "out of test pages"}
		}
		p := base + next
		next += uintptr(mem.PageSize)
		return p, nil
	}
	mapFn = func(virtAddr, physAddr uintptr, flags vmm.PageTableEntryFlag) *kernel.Error {
		return nil
	}
	physToVirtFn = func(phys uintptr) uintptr { return phys }

	return base, func() {
		allocPageFn = nil
		mapFn = nil
		physToVirtFn = nil
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	bad := []byte{0, 0, 0, 0}
	if _, err := Load(bad); err != ErrInvalidMagic {
		t.Fatalf("expected ErrInvalidMagic; got %v", err)
	}
}

func TestLoadRejectsWrongMachine(t *testing.T) {
	image := buildImage(0x1000, []byte{1, 2, 3, 4}, 8)
	binary.LittleEndian.PutUint16(image[18:20], 0x28) // ARM, not x86_64
	if _, err := Load(image); err != ErrInvalidMachine {
		t.Fatalf("expected ErrInvalidMachine; got %v", err)
	}
}

func TestLoadCopiesFileDataAndZeroesBSS(t *testing.T) {
	base, cleanup := withBackingMemory(t, 4)
	defer cleanup()

	vaddr := uint64(base)
	payload := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	image := buildImage(vaddr, payload, 16) // 4 bytes of file data, 16 total

	bss := mem.ByteSliceAt(uintptr(vaddr)+uintptr(len(payload)), 12)
	for i := range bss {
		bss[i] = 0xee
	}

	entry, err := Load(image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != uintptr(vaddr+4) {
		t.Fatalf("expected entry %#x; got %#x", vaddr+4, entry)
	}

	// BSS zeroing happens through the physToVirt alias of the freshly
	// allocated frame. In this fake the first frame is base itself and
	// physToVirt is the identity, so that alias is the segment's own
	// memory and the zeroing is visible at vaddr.
	loaded := mem.ByteSliceAt(uintptr(vaddr), mem.Size(len(payload)))
	for i, b := range payload {
		if loaded[i] != b {
			t.Fatalf("byte %d: expected %#x; got %#x", i, b, loaded[i])
		}
	}
	for i, b := range bss {
		if b != 0 {
			t.Fatalf("BSS byte %d: expected 0; got %#x", i, b)
		}
	}
}
