package kmain

import (
	"github.com/Zafnok/hobby-os/kernel/driver/keyboard"
	"github.com/Zafnok/hobby-os/kernel/mem"
	"github.com/Zafnok/hobby-os/kernel/mem/pmm"
	"github.com/Zafnok/hobby-os/kernel/mem/vmm"
	"github.com/Zafnok/hobby-os/kernel/serial"
	"github.com/Zafnok/hobby-os/kernel/video"
)

// sleepIterationsPerMs is a heuristic busy-wait calibration (no timer to
// derive it from); it is tuned for QEMU TCG, not real silicon.
const sleepIterationsPerMs = 1_000_000

// The five functions below are the bodies behind the kernel table's five
// function-pointer entries (log, draw_rect, poll_key, sleep_ms,
// alloc_pages). None of their addresses are handed to ktable.Init
// directly: a Go function's address is its ABI0 entry point, which takes
// arguments on the stack, not in the SysV registers a loaded user
// program's CALL will have loaded them into. abi_amd64.s instead defines
// one small trampoline per entry that re-homes the SysV arguments into
// ABIInternal's register assignment and calls that entry directly; it is
// each trampoline's address, not the Go function's, that reaches
// ktable.Init.

// logEntry writes length bytes starting at ptr verbatim to the serial
// line: no prefix, no trailing newline, per the table's log() contract.
func logEntry(ptr uintptr, length uintptr) {
	for _, b := range mem.ByteSliceAt(ptr, mem.Size(length)) {
		serial.WriteByte(b)
	}
}

// drawRectEntry fills a clipped rectangle on the framebuffer, or does
// nothing if none exists.
func drawRectEntry(x, y, w, h int32, color uint32) {
	video.DrawRect(x, y, w, h, color)
}

// pollKeyEntry returns the next buffered key, or 0 if none is pending.
func pollKeyEntry() byte {
	return keyboard.PollKey()
}

// sleepMsEntry busy-waits for approximately ms milliseconds. Documented in
// the table's contract to be replaced once a timer interrupt drives
// sleeping instead.
func sleepMsEntry(ms uint64) {
	for i := uint64(0); i < ms*sleepIterationsPerMs; i++ {
	}
}

// allocPagesEntry allocates n contiguous physical pages and returns their
// HHDM virtual address, or 0 on out-of-memory.
func allocPagesEntry(n uint64) uintptr {
	phys, err := pmm.AllocatePages(n)
	if err != nil {
		return 0
	}
	return vmm.Active().PhysToVirt(phys)
}

// The following are implemented in abi_amd64.s; each returns the address
// of a SysV-callable trampoline wrapping its matching entry function
// above, for ktable.Init.
func logEntryAddr() uintptr
func drawRectEntryAddr() uintptr
func pollKeyEntryAddr() uintptr
func sleepMsEntryAddr() uintptr
func allocPagesEntryAddr() uintptr
