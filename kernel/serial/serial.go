// Package serial drives the COM1 UART. It is the only output device the
// kernel can rely on before the VMM has mapped a framebuffer and before any
// console driver has probed its hardware, so every other logging path in
// the kernel is ultimately backed by this package.
package serial

import "github.com/Zafnok/hobby-os/kernel/cpu"

// com1Port is the standard I/O port address of the first serial line.
const com1Port = 0x3F8

var initialized bool

// Init programs the COM1 UART for 38400 baud, 8 data bits, no parity, one
// stop bit, and enables the FIFO. It is idempotent.
func Init() {
	if initialized {
		return
	}

	cpu.PortWriteByte(com1Port+1, 0x00) // disable interrupts
	cpu.PortWriteByte(com1Port+3, 0x80) // enable DLAB to set baud divisor
	cpu.PortWriteByte(com1Port+0, 0x03) // divisor low byte (38400 baud)
	cpu.PortWriteByte(com1Port+1, 0x00) // divisor high byte
	cpu.PortWriteByte(com1Port+3, 0x03) // 8N1, DLAB off
	cpu.PortWriteByte(com1Port+2, 0xC7) // enable FIFO, clear, 14-byte threshold
	cpu.PortWriteByte(com1Port+4, 0x0B) // IRQs disabled, DTR/RTS/OUT2 set

	initialized = true
}

// transmitEmpty reports whether the UART's transmit holding register is
// ready to accept another byte.
func transmitEmpty() bool {
	return cpu.PortReadByte(com1Port+5)&0x20 != 0
}

// WriteByte writes a single byte verbatim to COM1. There is no flow control
// beyond busy-waiting for the transmit buffer to drain, and no implicit
// newline translation: the caller supplies '\n' (0x0A) when a line break is
// wanted.
func WriteByte(b byte) {
	for !transmitEmpty() {
	}
	cpu.PortWriteByte(com1Port, b)
}

// Write has the io.Writer signature so that kmain's serialSink adapter can
// hand it to kfmt as an output sink once the heap and Go interface
// machinery are available.
func Write(p []byte) (int, error) {
	for _, b := range p {
		WriteByte(b)
	}
	return len(p), nil
}
