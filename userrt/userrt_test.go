package userrt

import (
	"testing"

	"github.com/Zafnok/hobby-os/kernel/ktable"
)

func TestHandshakeAcceptsValidMagic(t *testing.T) {
	ktable.Init(0, 0, 0, 0, 0)

	got, ok := Handshake(ktable.Pointer())
	if !ok {
		t.Fatal("expected handshake to succeed against a freshly initialised table")
	}
	if got.Magic != ktable.Magic {
		t.Fatalf("expected magic %#x; got %#x", ktable.Magic, got.Magic)
	}
}

func TestHandshakeRejectsZeroPointer(t *testing.T) {
	if _, ok := Handshake(0); ok {
		t.Fatal("expected handshake to reject a nil table pointer")
	}
}

// lastProbeArgs is written directly by the probeStub assembly target in
// userrt_test_amd64.s, which genericCall5 calls through exactly the way it
// would call a real table entry: by jumping to a raw address with
// arguments already sitting in the SysV integer registers. Every real
// entry in ktable.Table is itself a hand-written SysV trampoline (see
// kernel/kmain/abi_amd64.s), never a plain Go function's address, so this
// probe is calling the same shape of code a real table entry is, not a
// stand-in for something genericCall5 would actually be calling
// differently in production.
var lastProbeArgs [5]uintptr

func probeStubAddr() uintptr

func TestGenericCall5DeliversArgsAndReturnValue(t *testing.T) {
	got := genericCall5(probeStubAddr(), 10, 20, 30, 40, 50)
	if got != 30 {
		t.Fatalf("expected return value 30; got %d", got)
	}
	if lastProbeArgs != [5]uintptr{10, 20, 30, 40, 50} {
		t.Fatalf("expected args [10 20 30 40 50]; got %v", lastProbeArgs)
	}
}
