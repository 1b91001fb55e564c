package irq

import "github.com/Zafnok/hobby-os/kernel/cpu"

// The legacy 8259 PICs are present on every PC-compatible board but are
// fully superseded here by the LAPIC and IOAPIC. DisableLegacyPIC remaps
// them out of the CPU-exception vector range and then masks every line on
// both controllers, so a spurious or misrouted legacy IRQ can never land
// on a vector the IDT treats as a CPU exception, and the controllers never
// race the APICs for the same IRQ.
const (
	picMasterCommand = 0x20
	picMasterData    = 0x21
	picSlaveCommand  = 0xa0
	picSlaveData     = 0xa1

	icw1Init      = 0x11 // ICW4 follows, cascade mode, edge triggered
	icw4Mode8086  = 0x01
	picMasterBase = 0x20 // remapped vector base, clear of 0..31
	picSlaveBase  = 0x28

	picDisableAll = 0xff
)

// DisableLegacyPIC runs the standard ICW1..ICW4 remap sequence, retargeting
// the master and slave PICs to vectors 0x20..0x2F, then masks every line.
func DisableLegacyPIC() {
	cpu.PortWriteByte(picMasterCommand, icw1Init)
	cpu.PortWriteByte(picSlaveCommand, icw1Init)
	cpu.PortWriteByte(picMasterData, picMasterBase)
	cpu.PortWriteByte(picSlaveData, picSlaveBase)
	cpu.PortWriteByte(picMasterData, 4) // ICW3: slave attached to IRQ2
	cpu.PortWriteByte(picSlaveData, 2)  // ICW3: slave's own cascade identity
	cpu.PortWriteByte(picMasterData, icw4Mode8086)
	cpu.PortWriteByte(picSlaveData, icw4Mode8086)

	cpu.PortWriteByte(picMasterData, picDisableAll)
	cpu.PortWriteByte(picSlaveData, picDisableAll)
}
