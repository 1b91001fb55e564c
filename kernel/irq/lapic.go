package irq

import (
	"unsafe"

	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/mem/vmm"
)

// Local APIC MMIO register offsets, xAPIC mode.
const (
	lapicPhysBase = 0xfee00000

	lapicRegSpurious = 0x0f0
	lapicRegEOI      = 0x0b0

	lapicSoftwareEnable = 1 << 8
)

var lapicBase uintptr

// InitLAPIC maps the LAPIC's MMIO page into the kernel's address space and
// enables it via the spurious-interrupt register. DisableLegacyPIC must
// have already run so the 8259s never contend with it. TimerVector's IDT
// gate stays installed for completeness, but nothing arms the LAPIC timer
// that would ever drive it; there is no preemptive scheduling to serve.
func InitLAPIC() *kernel.Error {
	as := vmm.Active()
	virt := as.PhysToVirt(lapicPhysBase)
	if err := as.Map(virt, lapicPhysBase, vmm.FlagRW|vmm.FlagNoExecute|vmm.FlagPCD); err != nil {
		return err
	}
	lapicBase = virt

	writeLAPIC(lapicRegSpurious, lapicSoftwareEnable|uint32(SpuriousVector))

	return nil
}

func lapicReg(offset uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(lapicBase + offset))
}

func writeLAPIC(offset uintptr, v uint32) {
	*lapicReg(offset) = v
}

// SendEOI signals end-of-interrupt to the LAPIC. vector is unused in xAPIC
// mode (there is only one EOI register) but kept so callers don't need to
// know that.
func SendEOI(vector uint8) {
	writeLAPIC(lapicRegEOI, 0)
}
