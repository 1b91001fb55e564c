package cpu

import "testing"

func TestIsIntel(t *testing.T) {
	defer func() { cpuidFn = ID }()

	specs := []struct {
		eax, ebx, ecx, edx uint32
		exp                bool
	}{
		// CPUID leaf 0 output from an Intel CPU.
		{0xd, 0x756e6547, 0x6c65746e, 0x49656e69, true},
		// CPUID leaf 0 output from an AMD Athlon CPU.
		{0x1, 0x68747541, 0x444d4163, 0x69746e65, false},
	}

	for i, spec := range specs {
		cpuidFn = func(_ uint32) (uint32, uint32, uint32, uint32) {
			return spec.eax, spec.ebx, spec.ecx, spec.edx
		}

		if got := IsIntel(); got != spec.exp {
			t.Errorf("[spec %d] expected IsIntel to return %t; got %t", i, spec.exp, got)
		}
	}
}

func TestPKSSupported(t *testing.T) {
	orig := idExFn
	defer func() { idExFn = orig }()

	idExFn = func(leaf, subleaf uint32) (uint32, uint32, uint32, uint32) {
		if leaf != 7 || subleaf != 0 {
			t.Fatalf("unexpected cpuid leaf/subleaf: %d/%d", leaf, subleaf)
		}
		return 0, 0, 1 << 31, 0
	}

	if !PKSSupported() {
		t.Error("expected PKSSupported to report true when ECX bit 31 is set")
	}

	idExFn = func(leaf, subleaf uint32) (uint32, uint32, uint32, uint32) {
		return 0, 0, 0, 0
	}

	if PKSSupported() {
		t.Error("expected PKSSupported to report false when ECX bit 31 is clear")
	}
}
