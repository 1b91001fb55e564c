// Package cpu wraps the handful of amd64 primitives the kernel core needs
// that cannot be expressed in portable Go: port I/O, control/model-specific
// register access, CPUID, TLB invalidation and the HLT/STI/CLI instructions.
// Every function declared here without a Go body is implemented in
// cpu_amd64.s.
package cpu

var cpuidFn = ID

// EnableInterrupts executes STI.
func EnableInterrupts()

// DisableInterrupts executes CLI.
func DisableInterrupts()

// Halt executes HLT, parking the CPU until the next interrupt.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr via INVLPG.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT loads CR3 with the physical address of a new top-level page
// table and implicitly flushes the entire TLB.
func SwitchPDT(pml4PhysAddr uintptr)

// ActivePDT returns the physical address currently loaded in CR3.
func ActivePDT() uintptr

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uint64

// ReadCR4 returns the current value of CR4.
func ReadCR4() uint64

// WriteCR4 stores v into CR4.
func WriteCR4(v uint64)

// ReadMSR executes RDMSR for the given MSR index.
func ReadMSR(msr uint32) uint64

// WriteMSR executes WRMSR for the given MSR index.
func WriteMSR(msr uint32, v uint64)

// ID executes CPUID with EAX=leaf, ECX=0 and returns the resulting EAX, EBX,
// ECX and EDX values.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// IDEx executes CPUID with EAX=leaf, ECX=subleaf.
func IDEx(leaf, subleaf uint32) (uint32, uint32, uint32, uint32)

// IsIntel returns true if the running CPU reports the "GenuineIntel" vendor
// string via CPUID leaf 0.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16)

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// PortReadWord reads a uint16 value from the requested port.
func PortReadWord(port uint16) uint16

// PortReadDword reads a uint32 value from the requested port.
func PortReadDword(port uint16) uint32
