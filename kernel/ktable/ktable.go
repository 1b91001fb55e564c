// Package ktable defines the fixed-layout function-pointer record handed
// to a loaded user program in place of a syscall gateway. In the SASOS
// model kernel and user code share one virtual address space; PKS, not a
// ring transition, is what keeps user code off kernel-only pages, so the
// cheapest possible cross-domain call is simply a table of pointers the
// user program reads once at load time.
package ktable

import "unsafe"

// Magic identifies a valid KernelTable to user code that has just received
// a pointer to one and wants to sanity-check the handoff before calling
// through it.
const Magic = uint64(0xdeadc0de)

// Table is the 48-byte ABI record: an 8-byte magic followed by five 8-byte
// function pointers, in this exact field order. Offsets are part of the
// contract (0, 8, 16, 24, 32, 40) and are asserted by the tests, not just
// documented here.
type Table struct {
	Magic uint64

	Log        uintptr
	DrawRect   uintptr
	PollKey    uintptr
	SleepMs    uintptr
	AllocPages uintptr
}

// active is the single instance every loaded program is handed a pointer
// to. It is built once by Init and never mutated afterward beyond that
// point; Magic, once set, is never touched again.
var active Table

// Init populates active with the given entry points and sets Magic. Called
// exactly once from Kmain, after every subsystem the entry points close
// over (serial, video, keyboard, heap/PMM) is up.
func Init(log, drawRect, pollKey, sleepMs, allocPages uintptr) {
	active = Table{
		Magic:      Magic,
		Log:        log,
		DrawRect:   drawRect,
		PollKey:    pollKey,
		SleepMs:    sleepMs,
		AllocPages: allocPages,
	}
}

// Pointer returns the address of the single KernelTable instance, the
// value passed in RDI to every loaded program's entry point.
func Pointer() uintptr {
	return uintptr(unsafe.Pointer(&active))
}
