// Package elf loads an in-memory ELF64 executable into the running address
// space. It never touches a filesystem: callers hand it the bytes of an
// already-loaded bootloader module and get back an entry point.
package elf

import (
	"encoding/binary"

	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/mem"
	"github.com/Zafnok/hobby-os/kernel/mem/vmm"
)

var (
	ErrInvalidMagic   = &kernel.Error{Module: "elf", Message: "bad ELF magic"}
	ErrInvalidClass   = &kernel.Error{Module: "elf", Message: "not a 64-bit ELF"}
	ErrInvalidEndian  = &kernel.Error{Module: "elf", Message: "not little-endian"}
	ErrInvalidMachine = &kernel.Error{Module: "elf", Message: "not an x86_64 image"}
	ErrInvalidType    = &kernel.Error{Module: "elf", Message: "not an executable or shared object"}
	ErrLoadFailed     = &kernel.Error{Module: "elf", Message: "failed to map a loadable segment"}
)

const (
	classELF64   = 2
	dataLittle   = 1
	machineAMD64 = 0x3e

	typeExec = 2
	typeDyn  = 3

	ptLoad = 1

	fileHeaderSize = 64
	progHeaderSize = 56
)

var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

// fileHeader is the subset of the ELF64 file header the loader needs,
// decoded field by field rather than overlaid as a struct so the layout
// never depends on Go's padding rules matching the on-disk format exactly.
type fileHeader struct {
	eType      uint16
	eMachine   uint16
	eEntry     uint64
	ePhoff     uint64
	ePhentsize uint16
	ePhnum     uint16
}

func parseFileHeader(image []byte) (fileHeader, *kernel.Error) {
	var h fileHeader
	if len(image) < fileHeaderSize {
		return h, ErrInvalidMagic
	}
	if image[0] != elfMagic[0] || image[1] != elfMagic[1] || image[2] != elfMagic[2] || image[3] != elfMagic[3] {
		return h, ErrInvalidMagic
	}
	if image[4] != classELF64 {
		return h, ErrInvalidClass
	}
	if image[5] != dataLittle {
		return h, ErrInvalidEndian
	}

	h.eType = binary.LittleEndian.Uint16(image[16:18])
	h.eMachine = binary.LittleEndian.Uint16(image[18:20])
	h.eEntry = binary.LittleEndian.Uint64(image[24:32])
	h.ePhoff = binary.LittleEndian.Uint64(image[32:40])
	h.ePhentsize = binary.LittleEndian.Uint16(image[54:56])
	h.ePhnum = binary.LittleEndian.Uint16(image[56:58])

	if h.eMachine != machineAMD64 {
		return h, ErrInvalidMachine
	}
	if h.eType != typeExec && h.eType != typeDyn {
		return h, ErrInvalidType
	}
	return h, nil
}

// progHeader is the subset of an ELF64 program header the loader needs.
type progHeader struct {
	pType   uint32
	pOffset uint64
	pVaddr  uint64
	pFilesz uint64
	pMemsz  uint64
}

func parseProgHeader(raw []byte) progHeader {
	return progHeader{
		pType:   binary.LittleEndian.Uint32(raw[0:4]),
		pOffset: binary.LittleEndian.Uint64(raw[8:16]),
		pVaddr:  binary.LittleEndian.Uint64(raw[16:24]),
		pFilesz: binary.LittleEndian.Uint64(raw[32:40]),
		pMemsz:  binary.LittleEndian.Uint64(raw[40:48]),
	}
}

// allocPageFn/mapFn are mocked by tests and are pmm.AllocatePage/the active
// address space's Map in the kernel build.
var (
	allocPageFn  func() (uintptr, *kernel.Error)
	mapFn        func(virtAddr, physAddr uintptr, flags vmm.PageTableEntryFlag) *kernel.Error
	physToVirtFn func(uintptr) uintptr
)

// SetMapper wires the loader to the page allocator and address space it
// should load segments into. Called once from Kmain with
// pmm.AllocatePage and vmm.Active().
func SetMapper(alloc func() (uintptr, *kernel.Error), m func(uintptr, uintptr, vmm.PageTableEntryFlag) *kernel.Error, physToVirt func(uintptr) uintptr) {
	allocPageFn = alloc
	mapFn = m
	physToVirtFn = physToVirt
}

// Load validates image as an ELF64 x86_64 executable or shared object,
// maps every PT_LOAD segment into the running address space, copies its
// file contents, zeroes its BSS tail, and returns the entry point.
func Load(image []byte) (entry uintptr, err *kernel.Error) {
	h, err := parseFileHeader(image)
	if err != nil {
		return 0, err
	}

	for i := 0; i < int(h.ePhnum); i++ {
		off := int(h.ePhoff) + i*int(h.ePhentsize)
		if off+progHeaderSize > len(image) {
			return 0, ErrLoadFailed
		}
		ph := parseProgHeader(image[off : off+progHeaderSize])
		if ph.pType != ptLoad {
			continue
		}
		if err := loadSegment(image, ph); err != nil {
			return 0, err
		}
	}

	return uintptr(h.eEntry), nil
}

func loadSegment(image []byte, ph progHeader) *kernel.Error {
	start := uintptr(ph.pVaddr) &^ (uintptr(mem.PageSize) - 1)
	end := (uintptr(ph.pVaddr) + uintptr(ph.pMemsz) + uintptr(mem.PageSize) - 1) &^ (uintptr(mem.PageSize) - 1)

	for page := start; page < end; page += uintptr(mem.PageSize) {
		phys, aerr := allocPageFn()
		if aerr != nil {
			return ErrLoadFailed
		}
		if merr := mapFn(page, phys, vmm.FlagRW); merr != nil {
			return ErrLoadFailed
		}
		mem.Memset(physToVirtFn(phys), 0, mem.PageSize)
	}

	src := image[ph.pOffset : ph.pOffset+ph.pFilesz]
	dst := mem.ByteSliceAt(uintptr(ph.pVaddr), mem.Size(len(src)))
	copy(dst, src)

	return nil
}
