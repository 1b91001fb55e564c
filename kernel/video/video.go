// Package video implements the one graphics primitive the kernel table
// exposes to user programs: filling a clipped rectangle on the
// bootloader-supplied linear framebuffer. Anything beyond that — fonts,
// a text console, window management — is out of scope; this package only
// exists to back draw_rect.
package video

import (
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel/hal/boot"
)

// fb describes the active framebuffer, or is the zero value if none was
// reported at boot.
var fb struct {
	addr   uintptr
	width  uint32
	height uint32
	pitch  uint32
	ok     bool
}

// Init records the bootloader's framebuffer, if any. DrawRect silently
// does nothing when no framebuffer was found, matching the ABI's
// "no-op if no framebuffer exists" contract.
func Init() {
	info := boot.Active()
	if info == nil {
		return
	}
	buf, ok := info.Framebuffer()
	if !ok {
		return
	}
	fb.addr = buf.Addr
	fb.width = buf.Width
	fb.height = buf.Height
	fb.pitch = buf.Pitch
	fb.ok = true
}

// DrawRect fills the rectangle [x, y, x+w, y+h) with a 32-bit ARGB color
// (0xAARRGGBB), clipping any portion that falls outside the framebuffer.
// It is a no-op if Init never found a framebuffer.
func DrawRect(x, y, w, h int32, color uint32) {
	if !fb.ok {
		return
	}

	x0, y0 := clamp(x, 0, int32(fb.width)), clamp(y, 0, int32(fb.height))
	x1, y1 := clamp(x+w, 0, int32(fb.width)), clamp(y+h, 0, int32(fb.height))

	for py := y0; py < y1; py++ {
		rowBase := fb.addr + uintptr(py)*uintptr(fb.pitch)
		for px := x0; px < x1; px++ {
			pixel := (*uint32)(unsafe.Pointer(rowBase + uintptr(px)*4))
			*pixel = color
		}
	}
}

func clamp(v, lo, hi int32) int32 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
