package vmm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// decodedEntry is a snapshot of every field pageTableEntry exposes,
// diffed as a whole with go-cmp so a mismatch in any one of them prints a
// readable field-by-field comparison instead of a single failed assertion.
type decodedEntry struct {
	Present bool
	RW      bool
	NoExec  bool
	Frame   uintptr
	Key     uint8
}

func snapshot(pte pageTableEntry) decodedEntry {
	return decodedEntry{
		Present: pte.HasFlags(FlagPresent),
		RW:      pte.HasFlags(FlagRW),
		NoExec:  pte.HasFlags(FlagNoExecute),
		Frame:   pte.FrameAddress(),
		Key:     pte.Key(),
	}
}

func TestPageTableEntrySetFlagsFrameAndKeyAreIndependent(t *testing.T) {
	var pte pageTableEntry
	pte.SetFlags(FlagPresent | FlagRW | FlagNoExecute)
	pte.SetFrameAddress(0x1234000)
	pte.SetKey(7)

	want := decodedEntry{Present: true, RW: true, NoExec: true, Frame: 0x1234000, Key: 7}
	if diff := cmp.Diff(want, snapshot(pte)); diff != "" {
		t.Fatalf("unexpected entry state (-want +got):\n%s", diff)
	}

	pte.ClearFlags(FlagRW)
	pte.SetFrameAddress(0x5000)

	want = decodedEntry{Present: true, RW: false, NoExec: true, Frame: 0x5000, Key: 7}
	if diff := cmp.Diff(want, snapshot(pte)); diff != "" {
		t.Fatalf("unexpected entry state after clear+re-set (-want +got):\n%s", diff)
	}
}
