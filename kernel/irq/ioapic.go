package irq

import (
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/mem/vmm"
)

// IOAPIC MMIO register offsets and the indirect register-select protocol
// used to reach the redirection table.
const (
	ioapicPhysBase = 0xfec00000

	ioapicRegSelect = 0x00
	ioapicRegWindow = 0x10

	ioapicRedirTableBase = 0x10

	// keyboardIRQ is the legacy ISA IRQ line the PS/2 keyboard controller
	// raises; it is wired to KeyboardVector in the redirection table.
	keyboardIRQ = 1
)

var ioapicBase uintptr

// InitIOAPIC maps the IOAPIC's MMIO page and routes the keyboard's legacy
// IRQ line to KeyboardVector, unmasked, delivered to the local APIC as a
// fixed interrupt.
func InitIOAPIC() *kernel.Error {
	as := vmm.Active()
	virt := as.PhysToVirt(ioapicPhysBase)
	if err := as.Map(virt, ioapicPhysBase, vmm.FlagRW|vmm.FlagNoExecute|vmm.FlagPCD); err != nil {
		return err
	}
	ioapicBase = virt

	routeIRQ(keyboardIRQ, KeyboardVector)
	return nil
}

func ioapicWriteReg(reg uint32, v uint32) {
	*(*uint32)(unsafe.Pointer(ioapicBase + ioapicRegSelect)) = reg
	*(*uint32)(unsafe.Pointer(ioapicBase + ioapicRegWindow)) = v
}

// routeIRQ points legacy ISA IRQ irq at vector, as a fixed-delivery,
// edge-triggered, active-high, unmasked interrupt destined for APIC ID 0.
func routeIRQ(irq uint8, vector uint8) {
	reg := ioapicRedirTableBase + uint32(irq)*2
	low := uint32(vector)
	high := uint32(0)
	ioapicWriteReg(reg, low)
	ioapicWriteReg(reg+1, high)
}
