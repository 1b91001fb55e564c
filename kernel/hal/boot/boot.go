// Package boot abstracts the bootloader handoff protocol. The kernel core
// only ever talks to the Info interface defined here; the concrete
// implementation in kernel/hal/boot/limine ties it to a specific protocol
// revision. This indirection exists because the boot protocol is an input
// interface, not part of the core, and a future bootloader (or protocol
// revision) should be swappable without touching the PMM, VMM or loader.
package boot

// RegionType classifies a range reported in the physical memory map.
type RegionType uint8

const (
	RegionUsable RegionType = iota
	RegionReserved
	RegionACPIReclaimable
	RegionACPINVS
	RegionBad
	RegionBootloaderReclaimable
	RegionExecutableAndModules
	RegionFramebuffer
)

// String returns a human-readable label for the region type.
func (t RegionType) String() string {
	switch t {
	case RegionUsable:
		return "usable"
	case RegionReserved:
		return "reserved"
	case RegionACPIReclaimable:
		return "acpi-reclaimable"
	case RegionACPINVS:
		return "acpi-nvs"
	case RegionBad:
		return "bad"
	case RegionBootloaderReclaimable:
		return "bootloader-reclaimable"
	case RegionExecutableAndModules:
		return "executable-and-modules"
	case RegionFramebuffer:
		return "framebuffer"
	default:
		return "unknown"
	}
}

// MemoryMapEntry describes one typed range of the physical address space.
type MemoryMapEntry struct {
	Base   uint64
	Length uint64
	Type   RegionType
}

// Module describes a bootloader-loaded file the kernel can pass to the ELF
// loader.
type Module struct {
	Path string
	Addr uintptr
	Size uint64
}

// Framebuffer describes a linear ARGB framebuffer set up by the bootloader.
type Framebuffer struct {
	Addr   uintptr
	Width  uint32
	Height uint32
	Pitch  uint32
	BPP    uint8
}

// Info is the set of facts the kernel core needs to extract from whichever
// bootloader protocol handed control to it.
type Info interface {
	// BaseRevisionSupported reports whether the bootloader acknowledged
	// the kernel's requested protocol revision.
	BaseRevisionSupported() bool

	// MemoryMap returns the typed physical memory map.
	MemoryMap() []MemoryMapEntry

	// HHDMOffset returns the virtual offset at which all physical memory
	// is mirrored.
	HHDMOffset() uintptr

	// ExecutableAddress returns the kernel's own virtual and physical
	// load addresses.
	ExecutableAddress() (virtBase, physBase uintptr)

	// Modules returns the bootloader-loaded module list.
	Modules() []Module

	// Framebuffer returns the primary framebuffer, if one was set up.
	Framebuffer() (Framebuffer, bool)
}

// active holds the Info implementation selected at boot. It is set exactly
// once, from Kmain, before any other subsystem runs.
var active Info

// SetInfo registers the bootloader Info implementation that the rest of the
// kernel will query. Called once from Kmain.
func SetInfo(info Info) {
	active = info
}

// Active returns the Info implementation registered via SetInfo.
func Active() Info {
	return active
}

// VisitMemRegions calls fn once for every memory map entry, in the order
// reported by the bootloader, stopping early if fn returns false.
func VisitMemRegions(fn func(*MemoryMapEntry) bool) {
	for i := range active.MemoryMap() {
		if !fn(&active.MemoryMap()[i]) {
			return
		}
	}
}
