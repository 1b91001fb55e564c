package vmm

import (
	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/mem"
)

// VirtToPhys resolves a mapped virtual address down to its physical
// address, accounting for whichever page size actually maps it.
func (as *AddressSpace) VirtToPhys(virtAddr uintptr) (uintptr, *kernel.Error) {
	leaf, level, err := as.leafEntry(virtAddr, false)
	if err != nil {
		return 0, err
	}
	if !leaf.HasFlags(FlagPresent) {
		return 0, ErrInvalidMapping
	}

	frame := leaf.FrameAddress()
	if level == pdLevel {
		offset := virtAddr & uintptr(mem.HugePageSize-1)
		return frame | offset, nil
	}

	offset := virtAddr & uintptr(mem.PageSize-1)
	return frame | offset, nil
}
