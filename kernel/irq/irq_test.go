package irq

import "testing"

func TestBuildDescriptor(t *testing.T) {
	d := buildDescriptor(0, 0xfffff, codeAccess, codeGran)

	if limit := d & 0xffff; limit != 0xffff {
		t.Errorf("expected low limit bits 0xffff; got %#x", limit)
	}
	if access := (d >> 40) & 0xff; access != codeAccess {
		t.Errorf("expected access byte %#x; got %#x", codeAccess, access)
	}
	if gran := (d >> 48) & 0xff; gran != codeGran {
		t.Errorf("expected granularity byte %#x; got %#x", codeGran, gran)
	}
}

func TestBuildGate(t *testing.T) {
	const handler = uintptr(0x1122334455667788)

	g := buildGate(handler, CodeSelector, gateTypeInterrupt)

	offsetLow := g.lo & 0xffff
	selector := (g.lo >> 16) & 0xffff
	typeAttr := (g.lo >> 40) & 0xff
	offsetMid := (g.lo >> 48) & 0xffff
	offsetHigh := g.hi & 0xffffffff

	if offsetLow != uint64(handler&0xffff) {
		t.Errorf("offsetLow: expected %#x; got %#x", handler&0xffff, offsetLow)
	}
	if offsetMid != uint64((handler>>16)&0xffff) {
		t.Errorf("offsetMid: expected %#x; got %#x", (handler>>16)&0xffff, offsetMid)
	}
	if offsetHigh != uint64((handler>>32)&0xffffffff) {
		t.Errorf("offsetHigh: expected %#x; got %#x", (handler>>32)&0xffffffff, offsetHigh)
	}
	if selector != uint64(CodeSelector) {
		t.Errorf("selector: expected %#x; got %#x", CodeSelector, selector)
	}
	if typeAttr != gateTypeInterrupt {
		t.Errorf("typeAttr: expected %#x; got %#x", gateTypeInterrupt, typeAttr)
	}
}

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	defer func() {
		handlers[Breakpoint] = nil
		handlersWithCode[GPFException] = nil
	}()

	var gotFrame *Frame
	HandleException(Breakpoint, func(f *Frame, r *Regs) { gotFrame = f })

	f := &Frame{Vector: uint64(Breakpoint)}
	dispatch(f, &Regs{})
	if gotFrame != f {
		t.Fatalf("expected registered handler to be invoked with the dispatched frame")
	}

	var gotCode uint64
	HandleExceptionWithCode(GPFException, func(code uint64, f *Frame, r *Regs) { gotCode = code })

	dispatch(&Frame{Vector: uint64(GPFException), ErrorCode: 0x42}, &Regs{})
	if gotCode != 0x42 {
		t.Fatalf("expected error code 0x42 to reach the handler; got %#x", gotCode)
	}
}

func TestDispatchSendsEOIForUnhandledHardwareVector(t *testing.T) {
	defer func() { sendEOIFn = SendEOI }()

	sent := 0
	sendEOIFn = func(vector uint8) {
		sent++
		if vector != TimerVector {
			t.Errorf("expected EOI for vector %#x; got %#x", TimerVector, vector)
		}
	}

	dispatch(&Frame{Vector: uint64(TimerVector)}, &Regs{})
	if sent != 1 {
		t.Fatalf("expected exactly one EOI for an unhandled timer tick; got %d", sent)
	}
}

func TestDispatchSendsEOIAfterRegisteredHardwareHandler(t *testing.T) {
	defer func() {
		sendEOIFn = SendEOI
		handlers[KeyboardVector] = nil
	}()

	called := false
	HandleException(ExceptionNum(KeyboardVector), func(f *Frame, r *Regs) { called = true })

	sent := 0
	sendEOIFn = func(vector uint8) { sent++ }

	dispatch(&Frame{Vector: uint64(KeyboardVector)}, &Regs{})
	if !called {
		t.Fatal("expected registered keyboard handler to run")
	}
	if sent != 1 {
		t.Fatalf("expected exactly one EOI after the handler ran; got %d", sent)
	}
}
