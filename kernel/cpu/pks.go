package cpu

// PKS (Protection Keys for Supervisor) lets the kernel tag pages with a
// 4-bit key and gate supervisor-mode access to them through a per-CPU MSR,
// instead of separate page tables and ring transitions. This is the
// substrate the SASOS model uses in place of a syscall trap gateway.

const (
	// cr4PKSBit is bit 24 of CR4, the "enable protection keys for
	// supervisor-mode pages" control.
	cr4PKSBit = 1 << 24

	// pkrsMSR is the model-specific register holding the supervisor
	// protection key rights mask.
	pkrsMSR = 0x691
)

// idExFn is mocked by tests and is automatically inlined by the compiler.
var idExFn = IDEx

// PKSSupported probes CPUID leaf 7, sub-leaf 0, ECX bit 31 and reports
// whether the running CPU implements supervisor protection keys.
func PKSSupported() bool {
	_, _, ecx, _ := idExFn(7, 0)
	return ecx&(1<<31) != 0
}

// EnablePKS sets CR4.PKS and resets the PKRS MSR so that every key starts
// out permitting full supervisor access; callers that want to fence off a
// domain write a tighter mask into PKRS before jumping into it and restore
// the all-access mask on return.
func EnablePKS() {
	WriteCR4(ReadCR4() | cr4PKSBit)
	WriteMSR(pkrsMSR, 0)
}

// ReadPKRS returns the current supervisor protection key rights mask.
func ReadPKRS() uint64 {
	return ReadMSR(pkrsMSR)
}

// WritePKRS installs a new supervisor protection key rights mask. Each key
// occupies 2 bits of the mask: bit 2k disables data access, bit 2k+1
// disables write access for key k.
func WritePKRS(mask uint64) {
	WriteMSR(pkrsMSR, mask)
}
