// Package userrt is the user-program side of the kernel table handshake:
// the one-shot, never-closing contract design note in the core's own
// documentation describes. A loaded program receives a single uintptr in
// its first argument register, calls Handshake to validate it, and from
// then on only ever reads through the table — it never mutates it and
// there is no second handoff.
package userrt

import (
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel/ktable"
)

// Handshake interprets tablePtr (the value a loaded program receives in
// RDI at entry) as a *ktable.Table and checks its magic before handing it
// back. A mismatched magic means either a stale pointer or a kernel
// built against a different table layout; the caller should treat either
// as a fatal handoff failure rather than guess at partial compatibility.
func Handshake(tablePtr uintptr) (*ktable.Table, bool) {
	if tablePtr == 0 {
		return nil, false
	}
	tbl := (*ktable.Table)(unsafe.Pointer(tablePtr))
	if tbl.Magic != ktable.Magic {
		return nil, false
	}
	return tbl, true
}

// genericCall5 is implemented in userrt_amd64.s. It calls the function at
// fn with up to five uintptr arguments delivered in RDI, RSI, RDX, RCX,
// R8 (SysV order) and returns whatever that function left in RAX. Every
// table entry is reached through this single trampoline rather than one
// bespoke assembly stub per entry, narrowing the surface that has to get
// the calling convention right to one function.
func genericCall5(fn, a0, a1, a2, a3, a4 uintptr) uintptr

// Log writes length bytes starting at ptr to the kernel's log sink.
func Log(tbl *ktable.Table, ptr, length uintptr) {
	genericCall5(tbl.Log, ptr, length, 0, 0, 0)
}

// DrawRect fills a clipped rectangle on the framebuffer, if one exists.
func DrawRect(tbl *ktable.Table, x, y, w, h int32, color uint32) {
	genericCall5(tbl.DrawRect,
		uintptr(uint32(x)), uintptr(uint32(y)), uintptr(uint32(w)), uintptr(uint32(h)),
		uintptr(color))
}

// PollKey returns the next buffered key, or 0 if none is pending.
func PollKey(tbl *ktable.Table) byte {
	return byte(genericCall5(tbl.PollKey, 0, 0, 0, 0, 0))
}

// SleepMs busy-waits for approximately ms milliseconds.
func SleepMs(tbl *ktable.Table, ms uint64) {
	genericCall5(tbl.SleepMs, uintptr(ms), 0, 0, 0, 0)
}

// AllocPages requests n contiguous physical pages, returning their HHDM
// virtual address or 0 on failure.
func AllocPages(tbl *ktable.Table, n uint64) uintptr {
	return genericCall5(tbl.AllocPages, uintptr(n), 0, 0, 0, 0)
}
