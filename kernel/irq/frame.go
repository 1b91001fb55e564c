package irq

import "github.com/Zafnok/hobby-os/kernel/kfmt/early"

// Regs is a snapshot of the general-purpose registers at the moment an
// interrupt or exception occurred, saved by the per-vector assembly stub
// in the fixed order the stub pushes them.
type Regs struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64
}

// Print dumps the register snapshot to the early console.
func (r *Regs) Print() {
	early.Printf("RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	early.Printf("RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	early.Printf("RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	early.Printf("RBP = %16x\n", r.RBP)
	early.Printf("R8  = %16x R9  = %16x\n", r.R8, r.R9)
	early.Printf("R10 = %16x R11 = %16x\n", r.R10, r.R11)
	early.Printf("R12 = %16x R13 = %16x\n", r.R12, r.R13)
	early.Printf("R14 = %16x R15 = %16x\n", r.R14, r.R15)
}

// Frame is the portion of the interrupt stack frame the CPU itself pushes:
// vector and error code (synthesized as zero by the stub when the CPU
// doesn't push one), followed by the return address, code segment, flags,
// and — only on a privilege-level change, which never happens in this
// single-ring model — stack pointer and stack segment.
type Frame struct {
	Vector    uint64
	ErrorCode uint64
	RIP       uint64
	CS        uint64
	RFlags    uint64
	RSP       uint64
	SS        uint64
}

// Print dumps the exception frame to the early console.
func (f *Frame) Print() {
	early.Printf("vector = %d error = %16x\n", f.Vector, f.ErrorCode)
	early.Printf("RIP = %16x CS  = %16x\n", f.RIP, f.CS)
	early.Printf("RSP = %16x SS  = %16x\n", f.RSP, f.SS)
	early.Printf("RFL = %16x\n", f.RFlags)
}
