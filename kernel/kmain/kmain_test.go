package kmain

import (
	"testing"

	"github.com/Zafnok/hobby-os/kernel/hal/boot"
)

type fakeBootInfo struct {
	modules []boot.Module
}

func (f *fakeBootInfo) BaseRevisionSupported() bool           { return true }
func (f *fakeBootInfo) MemoryMap() []boot.MemoryMapEntry      { return nil }
func (f *fakeBootInfo) HHDMOffset() uintptr                   { return 0 }
func (f *fakeBootInfo) ExecutableAddress() (uintptr, uintptr) { return 0, 0 }
func (f *fakeBootInfo) Modules() []boot.Module                { return f.modules }
func (f *fakeBootInfo) Framebuffer() (boot.Framebuffer, bool) { return boot.Framebuffer{}, false }

func TestFindModuleMatchesPathSubstring(t *testing.T) {
	defer boot.SetInfo(nil)
	boot.SetInfo(&fakeBootInfo{modules: []boot.Module{
		{Path: "/boot/modules/shell.elf", Addr: 0x1000, Size: 16},
		{Path: "/boot/modules/test.elf", Addr: 0x2000, Size: 32},
	}})

	mod := findModule("test.elf")
	if mod == nil {
		t.Fatal("expected to find test.elf")
	}
	if mod.Addr != 0x2000 || mod.Size != 32 {
		t.Fatalf("found wrong module: %+v", mod)
	}
}

func TestFindModuleNoMatch(t *testing.T) {
	defer boot.SetInfo(nil)
	boot.SetInfo(&fakeBootInfo{modules: []boot.Module{
		{Path: "/boot/modules/shell.elf"},
	}})

	if mod := findModule("missing.elf"); mod != nil {
		t.Fatalf("expected no match; got %+v", mod)
	}
}

func TestSleepMsEntryZeroReturnsImmediately(t *testing.T) {
	sleepMsEntry(0)
}
