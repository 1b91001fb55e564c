package irq

import (
	"github.com/Zafnok/hobby-os/kernel/cpu"
	"github.com/Zafnok/hobby-os/kernel/kfmt/early"
)

// ExceptionNum identifies a CPU exception or hardware interrupt vector.
type ExceptionNum uint8

const (
	DivideByZero   = ExceptionNum(0)
	Debug          = ExceptionNum(1)
	NMI            = ExceptionNum(2)
	Breakpoint     = ExceptionNum(3)
	Overflow       = ExceptionNum(4)
	BoundRange     = ExceptionNum(5)
	InvalidOpcode  = ExceptionNum(6)
	DeviceNA       = ExceptionNum(7)
	DoubleFault    = ExceptionNum(8)
	InvalidTSS     = ExceptionNum(10)
	SegmentNP      = ExceptionNum(11)
	StackFault     = ExceptionNum(12)
	GPFException   = ExceptionNum(13)
	PageFault      = ExceptionNum(14)
	FPError        = ExceptionNum(16)
	AlignmentCheck = ExceptionNum(17)
)

// hasErrorCode lists the CPU exceptions that push an error code of their
// own; every other vector gets a synthetic zero pushed by its stub so
// commonStub can treat every frame uniformly.
var hasErrorCode = map[ExceptionNum]bool{
	8: true, 10: true, 11: true, 12: true, 13: true, 14: true, 17: true,
}

// ExceptionHandler handles an exception that does not carry a meaningful
// error code. If it returns, the (possibly modified) Frame and Regs are
// restored and execution resumes at Frame.RIP.
type ExceptionHandler func(*Frame, *Regs)

// ExceptionHandlerWithCode handles an exception that pushes a real error
// code, delivered as the first argument.
type ExceptionHandlerWithCode func(uint64, *Frame, *Regs)

var (
	handlers         [idtEntryCount]ExceptionHandler
	handlersWithCode [idtEntryCount]ExceptionHandlerWithCode

	// sendEOIFn is mocked by tests and is SendEOI in the kernel build.
	sendEOIFn = SendEOI
)

// HandleException registers handler for an exception vector that does not
// push an error code (or for a hardware interrupt vector, which never
// does).
func HandleException(num ExceptionNum, handler ExceptionHandler) {
	handlers[num] = handler
}

// HandleExceptionWithCode registers handler for an exception vector that
// pushes a real error code.
func HandleExceptionWithCode(num ExceptionNum, handler ExceptionHandlerWithCode) {
	handlersWithCode[num] = handler
}

// dispatch is called by commonStub with a pointer to the saved Frame and
// Regs for the vector that fired. It is exported for the assembly stub via
// go:linkname-free package-level visibility; callers never invoke it
// directly from Go.
func dispatch(frame *Frame, regs *Regs) {
	num := ExceptionNum(frame.Vector)
	isHardware := frame.Vector == TimerVector || frame.Vector == KeyboardVector

	if hasErrorCode[num] {
		if h := handlersWithCode[num]; h != nil {
			h(frame.ErrorCode, frame, regs)
			return
		}
	} else if h := handlers[num]; h != nil {
		h(frame, regs)
		if isHardware {
			// The handler did its work; the controller still needs its
			// EOI or it never fires this vector again.
			sendEOIFn(uint8(frame.Vector))
		}
		return
	}

	if isHardware {
		sendEOIFn(uint8(frame.Vector))
		return
	}

	unhandled(frame, regs)
}

// unhandled is the default action for an exception with no registered
// handler: dump everything known about the fault and halt. There is no
// ring transition to fall back to in this model, so there is nowhere else
// to send the fault.
func unhandled(frame *Frame, regs *Regs) {
	early.Printf("unhandled exception\n")
	frame.Print()
	regs.Print()
	if frame.Vector == uint64(PageFault) {
		early.Printf("CR2 = %16x\n", cpu.ReadCR2())
	}
	haltForever()
}

func haltForever()
