package vmm

import (
	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/cpu"
	"github.com/Zafnok/hobby-os/kernel/hal/boot"
	"github.com/Zafnok/hobby-os/kernel/mem"
)

// kernelImageSize bounds how much of the kernel's own load image Init maps
// at its linked virtual address. There is no section table to consult here
// (the Limine handoff gives a load base, not an ELF section list the way
// multiboot's GRUB does), so this is a flat over-estimate rather than a
// per-section W^X mapping.
const kernelImageSize = 16 * mem.Mb

var errMissingBootInfo = &kernel.Error{Module: "vmm", Message: "no boot info available"}

// NewAddressSpace wraps an existing PML4 frame and HHDM offset as an
// AddressSpace. Exposed for tests that want to exercise Map/MapHugePage
// against a hand-built table without going through Init.
func NewAddressSpace(pml4Phys, hhdmOffset uintptr) *AddressSpace {
	return &AddressSpace{pml4Phys: pml4Phys, hhdmOffset: hhdmOffset}
}

// Activate loads this address space's PML4 into CR3.
func (as *AddressSpace) Activate() {
	cpu.SwitchPDT(as.pml4Phys)
	active = as
}

// Init builds the kernel's own page tables: a full HHDM mirror of physical
// memory mapped with 2 MiB pages, plus the kernel's own load image at its
// linked virtual address, and activates the result. Until Init runs, the
// kernel still executes under the bootloader's page tables, which is why
// PMM bring-up (reading/writing the bitmap through the bootloader's own
// HHDM mapping) must happen before this call, not after.
func Init() *kernel.Error {
	info := boot.Active()
	if info == nil {
		return errMissingBootInfo
	}

	hhdm := info.HHDMOffset()

	pml4Phys, err := allocPageFn()
	if err != nil {
		return err
	}
	mem.Memset(hhdm+pml4Phys, 0, mem.PageSize)

	as := &AddressSpace{pml4Phys: pml4Phys, hhdmOffset: hhdm}

	maxAddr := uint64(0)
	boot.VisitMemRegions(func(r *boot.MemoryMapEntry) bool {
		if end := r.Base + r.Length; end > maxAddr {
			maxAddr = end
		}
		return true
	})
	maxAddr = (maxAddr + uint64(mem.HugePageSize) - 1) &^ (uint64(mem.HugePageSize) - 1)

	for phys := uint64(0); phys < maxAddr; phys += uint64(mem.HugePageSize) {
		virt := hhdm + uintptr(phys)
		if err := as.MapHugePage(virt, uintptr(phys), FlagRW|FlagGlobal|FlagNoExecute); err != nil {
			return err
		}
	}

	virtBase, physBase := info.ExecutableAddress()
	for off := mem.Size(0); off < kernelImageSize; off += mem.PageSize {
		if err := as.Map(virtBase+uintptr(off), physBase+uintptr(off), FlagRW|FlagGlobal); err != nil {
			return err
		}
	}

	as.Activate()
	return nil
}
