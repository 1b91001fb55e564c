// Package limine implements boot.Info on top of the Limine boot protocol.
// The request structures below mirror struct layouts from limine.h/limine.c:
// each request is a fixed-layout record the bootloader scans for (normally
// placed in a dedicated .limine_reqs link section by the kernel's entry
// stub) and fills in a *response pointer once it has parsed the kernel
// image. This package only needs the response side: NewProtocolFromRequests
// reads the response pointers back out of the package's own request
// records, and NewProtocol accepts them as raw addresses.
package limine

import (
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel/hal/boot"
)

// memmapEntry mirrors struct limine_memmap_entry.
type memmapEntry struct {
	base   uint64
	length uint64
	kind   uint64
}

// memmapResponse mirrors struct limine_memmap_response.
type memmapResponse struct {
	revision   uint64
	entryCount uint64
	entries    *unsafe.Pointer // **limine_memmap_entry
}

// hhdmResponse mirrors struct limine_hhdm_response.
type hhdmResponse struct {
	revision uint64
	offset   uint64
}

// execAddressResponse mirrors struct limine_executable_address_response.
type execAddressResponse struct {
	revision     uint64
	physicalBase uint64
	virtualBase  uint64
}

// file mirrors struct limine_file (the parts the kernel cares about).
type file struct {
	revision uint64
	address  unsafe.Pointer
	size     uint64
	path     *byte
	cmdline  *byte
	// remaining limine_file fields (media type, partition index, TFTP IP,
	// GPT/MBR disk identifiers, ...) are not surfaced to kernel code, which
	// only ever needs path/address/size to feed the ELF loader.
}

// moduleResponse mirrors struct limine_module_response.
type moduleResponse struct {
	revision            uint64
	moduleCount         uint64
	modules             *unsafe.Pointer // **limine_file
	internalModuleCount uint64
	internalModules     unsafe.Pointer
}

// framebuffer mirrors the leading fields of struct limine_framebuffer.
type framebuffer struct {
	address        unsafe.Pointer
	width          uint64
	height         uint64
	pitch          uint64
	bpp            uint16
	memoryModel    uint8
	redMaskSize    uint8
	redMaskShift   uint8
	greenMaskSize  uint8
	greenMaskShift uint8
	blueMaskSize   uint8
	blueMaskShift  uint8
	_              [7]byte
}

// framebufferResponse mirrors struct limine_framebuffer_response.
type framebufferResponse struct {
	revision         uint64
	framebufferCount uint64
	framebuffers     *unsafe.Pointer // **limine_framebuffer
}

// firmwareTypeResponse mirrors struct limine_firmware_type_response.
// firmwareType is one of the LIMINE_FIRMWARE_TYPE_* constants (x86 BIOS,
// UEFI32, UEFI64); the kernel only logs it, per SPEC_FULL's supplemented
// features, it never branches on the value.
type firmwareTypeResponse struct {
	revision     uint64
	firmwareType uint64
}

// stackSizeResponse mirrors struct limine_stack_size_response: an
// acknowledgement with no payload beyond the revision that handled it.
type stackSizeResponse struct {
	revision uint64
}

// pagingModeResponse mirrors struct limine_paging_mode_response. mode is
// one of the LIMINE_PAGING_MODE_* constants for the architecture; again,
// logged only, never acted on.
type pagingModeResponse struct {
	revision uint64
	mode     uint64
}

// Protocol implements boot.Info against a set of Limine response pointers
// collected by the entry stub.
type Protocol struct {
	baseRevisionSupported bool
	memmap                *memmapResponse
	hhdm                  *hhdmResponse
	execAddress           *execAddressResponse
	modules               *moduleResponse
	framebuffer           *framebufferResponse
	firmwareType          *firmwareTypeResponse
	stackSize             *stackSizeResponse
	pagingMode            *pagingModeResponse

	cachedMemoryMap []boot.MemoryMapEntry
	cachedModules   []boot.Module
}

// NewProtocol builds a Protocol from the raw response pointers gathered by
// the entry stub. Any pointer may be nil if the bootloader did not honour
// that request; callers must check before dereferencing the corresponding
// accessor's zero value.
func NewProtocol(baseRevisionSupported bool, memmap, hhdm, execAddress, modules, fb uintptr) *Protocol {
	return &Protocol{
		baseRevisionSupported: baseRevisionSupported,
		memmap:                (*memmapResponse)(unsafe.Pointer(memmap)),
		hhdm:                  (*hhdmResponse)(unsafe.Pointer(hhdm)),
		execAddress:           (*execAddressResponse)(unsafe.Pointer(execAddress)),
		modules:               (*moduleResponse)(unsafe.Pointer(modules)),
		framebuffer:           (*framebufferResponse)(unsafe.Pointer(fb)),
	}
}

// BaseRevisionSupported implements boot.Info.
func (p *Protocol) BaseRevisionSupported() bool {
	return p.baseRevisionSupported
}

// MemoryMap implements boot.Info.
func (p *Protocol) MemoryMap() []boot.MemoryMapEntry {
	if p.memmap == nil {
		return nil
	}
	if p.cachedMemoryMap == nil {
		entries := (*[1 << 20]*memmapEntry)(unsafe.Pointer(p.memmap.entries))
		out := make([]boot.MemoryMapEntry, p.memmap.entryCount)
		for i := uint64(0); i < p.memmap.entryCount; i++ {
			e := entries[i]
			out[i] = boot.MemoryMapEntry{
				Base:   e.base,
				Length: e.length,
				Type:   regionTypeFromLimine(e.kind),
			}
		}
		p.cachedMemoryMap = out
	}
	return p.cachedMemoryMap
}

// HHDMOffset implements boot.Info.
func (p *Protocol) HHDMOffset() uintptr {
	if p.hhdm == nil {
		return 0
	}
	return uintptr(p.hhdm.offset)
}

// ExecutableAddress implements boot.Info.
func (p *Protocol) ExecutableAddress() (virtBase, physBase uintptr) {
	if p.execAddress == nil {
		return 0, 0
	}
	return uintptr(p.execAddress.virtualBase), uintptr(p.execAddress.physicalBase)
}

// Modules implements boot.Info.
func (p *Protocol) Modules() []boot.Module {
	if p.modules == nil {
		return nil
	}
	if p.cachedModules == nil {
		entries := (*[1 << 16]*file)(unsafe.Pointer(p.modules.modules))
		out := make([]boot.Module, p.modules.moduleCount)
		for i := uint64(0); i < p.modules.moduleCount; i++ {
			f := entries[i]
			out[i] = boot.Module{
				Path: cString(f.path),
				Addr: uintptr(f.address),
				Size: f.size,
			}
		}
		p.cachedModules = out
	}
	return p.cachedModules
}

// Framebuffer implements boot.Info.
func (p *Protocol) Framebuffer() (boot.Framebuffer, bool) {
	if p.framebuffer == nil || p.framebuffer.framebufferCount == 0 {
		return boot.Framebuffer{}, false
	}

	entries := (*[1]*framebuffer)(unsafe.Pointer(p.framebuffer.framebuffers))
	fb := entries[0]
	return boot.Framebuffer{
		Addr:   uintptr(fb.address),
		Width:  uint32(fb.width),
		Height: uint32(fb.height),
		Pitch:  uint32(fb.pitch),
		BPP:    uint8(fb.bpp),
	}, true
}

// FirmwareType reports the LIMINE_FIRMWARE_TYPE_* value the bootloader
// returned, and whether it answered the request at all. Not part of
// boot.Info: nothing in the kernel branches on firmware type, it is only
// surfaced for the boot-time log line.
func (p *Protocol) FirmwareType() (uint64, bool) {
	if p.firmwareType == nil {
		return 0, false
	}
	return p.firmwareType.firmwareType, true
}

// StackSizeAcknowledged reports whether the bootloader responded to the
// stack-size request at all; the response carries nothing beyond that.
func (p *Protocol) StackSizeAcknowledged() bool {
	return p.stackSize != nil
}

// PagingMode reports the LIMINE_PAGING_MODE_* value the bootloader
// selected, and whether it answered the request. Like FirmwareType, this
// is logged only; the kernel has no policy over which paging mode it
// runs under.
func (p *Protocol) PagingMode() (uint64, bool) {
	if p.pagingMode == nil {
		return 0, false
	}
	return p.pagingMode.mode, true
}

// regionTypeFromLimine maps the LIMINE_MEMMAP_* constants onto boot.RegionType.
func regionTypeFromLimine(kind uint64) boot.RegionType {
	switch kind {
	case 0:
		return boot.RegionUsable
	case 1:
		return boot.RegionReserved
	case 2:
		return boot.RegionACPIReclaimable
	case 3:
		return boot.RegionACPINVS
	case 4:
		return boot.RegionBad
	case 5:
		return boot.RegionBootloaderReclaimable
	case 6, 7:
		return boot.RegionExecutableAndModules
	case 8:
		return boot.RegionFramebuffer
	default:
		return boot.RegionReserved
	}
}

// cString reads a NUL-terminated C string out of kernel memory. It is only
// used on the handful of bootloader-supplied strings (module paths) that
// are not otherwise reachable through a Go string.
func cString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for (*(*[1 << 16]byte)(unsafe.Pointer(p)))[n] != 0 {
		n++
	}
	buf := make([]byte, n)
	copy(buf, (*(*[1 << 16]byte)(unsafe.Pointer(p)))[:n])
	return string(buf)
}
