package limine

// This file mirrors the request-side structures from limine.c/requests.c:
// fixed records the bootloader scans for at boot and fills in a response
// pointer for. The real binary places these in a dedicated .limine_reqs
// link section (bracketed by 32-byte start and 16-byte end markers) via the
// entry stub's linker script; that placement is assembly/linker plumbing
// outside the Go core and is not reproduced here — this package only
// models the struct shapes and the base-revision handshake so that
// NewProtocolFromRequests and CheckBaseRevision have something concrete to
// read.

const (
	limineCommonMagic0 = 0xc7b1dd30df4c8b88
	limineCommonMagic1 = 0x0a82e883a194f07b
)

// baseRevision is the 3-word vector from requests.c's
// LIMINE_BASE_REVISION(3) macro: word 0/1 are the magic, word 2 is the
// revision the kernel requests. On a supporting bootloader, word 2 is
// zeroed in place before control reaches Kmain.
var baseRevision = [3]uint64{limineCommonMagic0, limineCommonMagic1, 3}

// CheckBaseRevision reports whether the bootloader acknowledged the
// requested protocol revision, per the base-revision negotiation restored
// from requests.c in SPEC_FULL's supplemented-features section.
func CheckBaseRevision() bool {
	return baseRevision[2] == 0
}

// requestID identifies a single Limine request record by its 64-bit ID
// pair, mirroring struct limine_*_request's leading "id" field.
type requestID [2]uint64

var (
	memmapRequestID       = requestID{0x67cf3d9d378a806f, 0xe304acdfc50c3c62}
	hhdmRequestID         = requestID{0x48dcf1cb8ad2b852, 0x63984e959a98244b}
	execAddressRequestID  = requestID{0x71ba76863cc55f63, 0xb2644a48c516a487}
	moduleRequestID       = requestID{0x3e7e279702be32af, 0xca1c4f3bd1280cee}
	framebufferRequestID  = requestID{0x9d5827dcd881dd75, 0xa3148604f6fab11b}
	firmwareTypeRequestID = requestID{0x8c2f75d90bef28a8, 0x7045a4688eac00c3}
	stackSizeRequestID    = requestID{0x224ef0460a8e8926, 0xe1cb0fc25f46ea3d}
	pagingModeRequestID   = requestID{0x95c1a0edab0944cb, 0xa4e5cb3842f7488a}
)

// memmapRequest mirrors struct limine_memmap_request.
type memmapRequest struct {
	id       requestID
	revision uint64
	response *memmapResponse
}

// hhdmRequest mirrors struct limine_hhdm_request.
type hhdmRequest struct {
	id       requestID
	revision uint64
	response *hhdmResponse
}

// execAddressRequest mirrors struct limine_executable_address_request.
type execAddressRequest struct {
	id       requestID
	revision uint64
	response *execAddressResponse
}

// moduleRequest mirrors struct limine_module_request.
type moduleRequest struct {
	id                  requestID
	revision            uint64
	response            *moduleResponse
	internalModuleCount uint64
	internalModules     uintptr
}

// framebufferRequest mirrors struct limine_framebuffer_request.
type framebufferRequest struct {
	id       requestID
	revision uint64
	response *framebufferResponse
}

// firmwareTypeRequest mirrors struct limine_firmware_type_request.
type firmwareTypeRequest struct {
	id       requestID
	revision uint64
	response *firmwareTypeResponse
}

// stackSizeRequest mirrors struct limine_stack_size_request. stackSize of
// 0 asks the bootloader for its default stack, which is all this kernel
// ever requests; nothing here acts on a different value.
type stackSizeRequest struct {
	id        requestID
	revision  uint64
	response  *stackSizeResponse
	stackSize uint64
}

// pagingModeRequest mirrors struct limine_paging_mode_request. Leaving
// mode/maxMode/minMode zero asks for the bootloader's default paging
// mode; this kernel has no policy of its own over which mode it runs
// under, it only logs whichever one came back.
type pagingModeRequest struct {
	id       requestID
	revision uint64
	response *pagingModeResponse
	mode     uint64
	maxMode  uint64
	minMode  uint64
}

// These request records are the Go-side mirror of requests.c. A real
// linked image would place them in .limine_reqs via the entry stub; here
// they simply give NewProtocolFromRequests something typed to read once
// the bootloader has filled in .response.
var (
	memmapReq        = memmapRequest{id: memmapRequestID, revision: 0}
	hhdmReq          = hhdmRequest{id: hhdmRequestID, revision: 1}
	execAddressReq   = execAddressRequest{id: execAddressRequestID, revision: 0}
	moduleReq        = moduleRequest{id: moduleRequestID, revision: 1}
	framebufferReq   = framebufferRequest{id: framebufferRequestID, revision: 1}
	firmwareTypeReq  = firmwareTypeRequest{id: firmwareTypeRequestID, revision: 0}
	stackSizeReq     = stackSizeRequest{id: stackSizeRequestID, revision: 0, stackSize: 0}
	pagingModeReq    = pagingModeRequest{id: pagingModeRequestID, revision: 0}
)

// NewProtocolFromRequests builds a Protocol by reading back the .response
// fields of the package's own request records, once the entry stub has
// confirmed the bootloader has populated them.
func NewProtocolFromRequests() *Protocol {
	return &Protocol{
		baseRevisionSupported: CheckBaseRevision(),
		memmap:                memmapReq.response,
		hhdm:                  hhdmReq.response,
		execAddress:           execAddressReq.response,
		modules:               moduleReq.response,
		framebuffer:           framebufferReq.response,
		firmwareType:          firmwareTypeReq.response,
		stackSize:             stackSizeReq.response,
		pagingMode:            pagingModeReq.response,
	}
}
