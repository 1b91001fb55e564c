package irq

// Selectors for the kernel code and data segments installed by InstallGDT.
// Index 0 is the mandatory null descriptor; 1 is code, 2 is data.
const (
	CodeSelector = uint16(0x08)
	DataSelector = uint16(0x10)
)

const (
	codeAccess = 0x9A // present, ring 0, code, readable
	codeGran   = 0xAF // 4 KiB granularity, long-mode (L bit set)
	dataAccess = 0x92 // present, ring 0, data, writable
	dataGran   = 0xCF // 4 KiB granularity, 32-bit default operand size
)

// gdt holds the kernel's flat GDT: a null descriptor, one code descriptor
// and one data descriptor. In long mode the base/limit fields of the code
// and data descriptors are not enforced by the MMU, but a compatible
// descriptor table is still required to reload CS/SS with a valid
// selector.
var gdt [3]uint64

// buildDescriptor packs a classic segment descriptor from its base, limit,
// access byte and granularity/flags byte.
func buildDescriptor(base, limit uint32, access, gran uint8) uint64 {
	return uint64(limit&0xffff) |
		uint64(base&0xffff)<<16 |
		uint64((base>>16)&0xff)<<32 |
		uint64(access)<<40 |
		uint64(gran)<<48 |
		uint64((base>>24)&0xff)<<56
}

// InstallGDT builds the three-entry GDT, loads it, and reloads every
// segment register so that CS points at the new code selector and
// SS/DS/ES/FS/GS point at the new data selector.
func InstallGDT() {
	gdt[0] = 0
	gdt[1] = buildDescriptor(0, 0xfffff, codeAccess, codeGran)
	gdt[2] = buildDescriptor(0, 0xfffff, dataAccess, dataGran)

	loadGDT(gdtPointer(), uint16(len(gdt)*8-1))
	reloadSegments()
}

// gdtPointer returns the address of the first GDT entry; a tiny wrapper so
// the assembly loader never needs to know the table's Go-level layout.
func gdtPointer() uintptr

// loadGDT issues LGDT against a table of the given byte size (minus one,
// per the LGDT descriptor convention) starting at base.
func loadGDT(base uintptr, limit uint16)

// reloadSegments performs the standard far-return dance: push the new CS
// selector and a return address, LRETQ into it, then reload the data
// segment registers with the new data selector.
func reloadSegments()
