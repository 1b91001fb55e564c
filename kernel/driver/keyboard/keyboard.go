// Package keyboard drives the PS/2 keyboard controller and exposes its
// input as a non-blocking poll, the shape the kernel table's poll_key
// entry needs. The IOAPIC-routed keyboard IRQ is the single producer; the
// shell (or whatever calls PollKey) is the single consumer.
package keyboard

import "github.com/Zafnok/hobby-os/kernel/cpu"

const (
	dataPort   = 0x60
	statusPort = 0x64

	// ringSize must be a power of two so the index masking below wraps
	// correctly.
	ringSize = 256
)

var (
	ring           [ringSize]byte
	writeCursor    uint32
	readCursor     uint32
	overflowFn     = logOverflow
	scancodeToByte = defaultScancodeTable
)

// HandleIRQ is the keyboard IRQ handler: it drains the controller's output
// byte, translates it with the active scancode table, and pushes the
// result onto the ring buffer. Registered on irq.KeyboardVector.
func HandleIRQ() {
	scancode := cpu.PortReadByte(dataPort)
	b, ok := scancodeToByte(scancode)
	if !ok {
		return
	}
	push(b)
}

// push writes b onto the ring buffer, dropping it and reporting an
// overflow if the buffer is full. Only ever called from the IRQ handler,
// the buffer's single producer.
func push(b byte) {
	next := (writeCursor + 1) & (ringSize - 1)
	if next == readCursor {
		overflowFn()
		return
	}
	ring[writeCursor] = b
	writeCursor = next
}

// PollKey returns the next buffered byte, or 0 if the ring is empty. It
// never blocks. readCursor is read back by the producer only to compare
// against writeCursor, so a plain load is enough here; the producer never
// observes a torn value on amd64 because aligned word-sized loads are
// atomic.
func PollKey() byte {
	if readCursor == writeCursor {
		return 0
	}
	b := ring[readCursor]
	readCursor = (readCursor + 1) & (ringSize - 1)
	return b
}

func logOverflow() {}

// defaultScancodeTable maps a tiny subset of set-1 scancodes (enough to
// type on a QEMU-default PS/2 keyboard) to ASCII. A full table is a
// collaborator this package deliberately leaves thin.
func defaultScancodeTable(scancode byte) (byte, bool) {
	if scancode&0x80 != 0 {
		return 0, false // key release, not press
	}
	if int(scancode) < len(set1) {
		if b := set1[scancode]; b != 0 {
			return b, true
		}
	}
	return 0, false
}

var set1 = [...]byte{
	0x1e: 'A', 0x30: 'B', 0x2e: 'C', 0x20: 'D', 0x12: 'E', 0x21: 'F',
	0x22: 'G', 0x23: 'H', 0x17: 'I', 0x24: 'J', 0x25: 'K', 0x26: 'L',
	0x32: 'M', 0x31: 'N', 0x18: 'O', 0x19: 'P', 0x10: 'Q', 0x13: 'R',
	0x1f: 'S', 0x14: 'T', 0x16: 'U', 0x2f: 'V', 0x11: 'W', 0x2d: 'X',
	0x15: 'Y', 0x2c: 'Z',
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0a: '9', 0x0b: '0',
	0x1c: '\n', 0x39: ' ', 0x0e: '\b',
}
