package kfmt

import (
	"bytes"
	"testing"
)

func TestPrintf(t *testing.T) {
	defer func() { outputSink = nil }()

	specs := []struct {
		fn        func()
		expOutput string
	}{
		{func() { Printf("no args") }, "no args"},
		{func() { Printf("%t", true) }, "true"},
		{func() { Printf("%s arg", "STRING") }, "STRING arg"},
		{func() { Printf("%s arg", []byte("BYTES")) }, "BYTES arg"},
		{func() { Printf("'%4s'", "ABC") }, "' ABC'"},
		{func() { Printf("'%4s'", "ABCDE") }, "'ABCDE'"},
		{func() { Printf("uint: %d", uint8(10)) }, "uint: 10"},
		{func() { Printf("oct: %o", uint16(0777)) }, "oct: 777"},
		{func() { Printf("hex: %x", uint32(0xdeadbeef)) }, "hex: deadbeef"},
		{func() { Printf("hex: %16x", uint64(0xff)) }, "hex: 00000000000000ff"},
		{func() { Printf("int: %d", int(-42)) }, "int: -42"},
		{func() { Printf("%d and %d", 1) }, "1 and (MISSING)"},
		{func() { Printf("%d", 1, 2) }, "1%!(EXTRA)"},
	}

	for i, spec := range specs {
		var buf bytes.Buffer
		SetOutputSink(&buf)
		spec.fn()
		if got := buf.String(); got != spec.expOutput {
			t.Errorf("[spec %d] expected %q; got %q", i, spec.expOutput, got)
		}
	}
}

func TestPrintfBuffersBeforeOutputSink(t *testing.T) {
	defer func() { outputSink, earlyPrintBuffer = nil, ringBuffer{} }()

	Printf("buffered line\n")

	var buf bytes.Buffer
	SetOutputSink(&buf)
	if got := buf.String(); got != "buffered line\n" {
		t.Fatalf("expected SetOutputSink to drain the early buffer; got %q", got)
	}
}
