package mem

import (
	"reflect"
	"unsafe"
)

// ByteSliceAt builds a []byte view over a raw memory region without
// performing an allocation. It mirrors the reflect.SliceHeader trick used
// throughout the PMM, VMM and heap packages to work with memory that is not
// tracked by the Go allocator — physical frames, HHDM windows, and mapped
// device memory never pass through make() or new().
func ByteSliceAt(addr uintptr, size Size) []byte {
	var s []byte
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	hdr.Data = addr
	hdr.Len = int(size)
	hdr.Cap = int(size)
	return s
}

// Memset sets size bytes starting at addr to value. It is implemented as a
// plain Go loop instead of relying on the runtime's memclr/memmove
// intrinsics, which are not guaranteed to be available in a freestanding
// build.
func Memset(addr uintptr, value byte, size Size) {
	dst := ByteSliceAt(addr, size)
	for i := range dst {
		dst[i] = value
	}
}

// Memcopy copies size bytes from src to dst. The two regions must not
// overlap.
func Memcopy(dst, src uintptr, size Size) {
	dstSlice := ByteSliceAt(dst, size)
	srcSlice := ByteSliceAt(src, size)
	copy(dstSlice, srcSlice)
}
