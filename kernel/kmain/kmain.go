// Package kmain wires together every subsystem built up by the rest of
// the tree into the kernel's bring-up sequence and its post-init shell
// loop. It is the only package the entry stub calls into.
package kmain

import (
	"strings"

	"github.com/Zafnok/hobby-os/kernel"
	"github.com/Zafnok/hobby-os/kernel/cpu"
	"github.com/Zafnok/hobby-os/kernel/driver/keyboard"
	"github.com/Zafnok/hobby-os/kernel/elf"
	"github.com/Zafnok/hobby-os/kernel/hal/boot"
	"github.com/Zafnok/hobby-os/kernel/hal/boot/limine"
	"github.com/Zafnok/hobby-os/kernel/irq"
	"github.com/Zafnok/hobby-os/kernel/kfmt"
	"github.com/Zafnok/hobby-os/kernel/kfmt/early"
	"github.com/Zafnok/hobby-os/kernel/ktable"
	"github.com/Zafnok/hobby-os/kernel/mem"
	"github.com/Zafnok/hobby-os/kernel/mem/heap"
	"github.com/Zafnok/hobby-os/kernel/mem/pmm"
	"github.com/Zafnok/hobby-os/kernel/mem/vmm"
	"github.com/Zafnok/hobby-os/kernel/serial"
	"github.com/Zafnok/hobby-os/kernel/video"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// jumpToEntry is implemented in entry_amd64.s. It calls entry with
// tablePtr delivered in RDI, the SysV first-argument register.
func jumpToEntry(entry, tablePtr uintptr)

// Kmain is the only Go symbol the entry stub calls. It is invoked once
// the stub has established a stack and parked the bootloader's Limine
// request responses where limine.NewProtocolFromRequests can read them.
// Kmain never returns; if every init step succeeds it falls into the
// shell's halt-and-poll loop forever.
//
//go:noinline
func Kmain() {
	serial.Init()
	early.Printf("Kernel Started\n")

	bootProtocol := limine.NewProtocolFromRequests()
	boot.SetInfo(bootProtocol)

	irq.InstallGDT()
	early.Printf("GDT Initialized\n")

	irq.InstallIDT()
	early.Printf("IDT Initialized\n")

	if cpu.PKSSupported() {
		cpu.EnablePKS()
		early.Printf("PKS: Enabled\n")
	} else {
		early.Printf("PKS: Not supported\n")
	}

	irq.DisableLegacyPIC()
	if err := irq.InitLAPIC(); err != nil {
		kernel.Panic(err)
	}
	if err := irq.InitIOAPIC(); err != nil {
		kernel.Panic(err)
	}
	irq.HandleException(irq.ExceptionNum(irq.KeyboardVector), func(f *irq.Frame, r *irq.Regs) {
		keyboard.HandleIRQ()
	})

	if err := pmm.Init(); err != nil {
		kernel.Panic(err)
	}
	early.Printf("PMM: Initialization Complete\n")

	vmm.SetFrameAllocator(pmm.AllocatePage)
	if err := vmm.Init(); err != nil {
		kernel.Panic(err)
	}

	if err := heap.Init(); err != nil {
		kernel.Panic(err)
	}

	kfmt.SetOutputSink(serialSink{})

	video.Init()

	elf.SetMapper(pmm.AllocatePage, vmm.Active().Map, vmm.Active().PhysToVirt)
	ktable.Init(logEntryAddr(), drawRectEntryAddr(), pollKeyEntryAddr(), sleepMsEntryAddr(), allocPagesEntryAddr())

	if boot.Active().BaseRevisionSupported() {
		early.Printf("Base Revision Supported.\n")
	}
	logBootExtras(bootProtocol)

	cpu.EnableInterrupts()

	shellLoop()

	kernel.Panic(errKmainReturned)
}

// logBootExtras logs the firmware type, stack-size acknowledgement, and
// paging mode the bootloader reported, if it answered those requests.
// None of the three are part of boot.Info: nothing downstream branches on
// them, so they are read straight off the concrete Protocol Kmain already
// holds rather than widening the interface every other package depends on.
func logBootExtras(p *limine.Protocol) {
	if ft, ok := p.FirmwareType(); ok {
		early.Printf("Firmware Type: %d\n", ft)
	}
	if p.StackSizeAcknowledged() {
		early.Printf("Stack Size: Acknowledged\n")
	}
	if mode, ok := p.PagingMode(); ok {
		early.Printf("Paging Mode: %d\n", mode)
	}
}

// serialSink adapts serial.Write to the io.Writer kfmt.SetOutputSink
// wants; serial.Write is a free function rather than a method on a
// zero-size type, so a tiny adapter is all that's needed.
type serialSink struct{}

func (serialSink) Write(p []byte) (int, error) { return serial.Write(p) }

// shellLoop is the interactive command line scenario 4 of the kernel's
// testable properties describes: it only understands "load <name>",
// which finds a bootloader module whose path contains name, loads it as
// an ELF image, and jumps to its entry point with the kernel table
// pointer. Anything else is echoed back as an unknown command. The loop
// never returns; the CPU halts between keystrokes and wakes on the next
// keyboard IRQ.
func shellLoop() {
	var line []byte
	kfmt.Printf("> ")

	for {
		b := keyboard.PollKey()
		if b == 0 {
			cpu.Halt()
			continue
		}

		switch b {
		case '\n':
			runCommand(string(line))
			line = line[:0]
			kfmt.Printf("> ")
		case '\b':
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
		default:
			line = append(line, b)
		}
	}
}

func runCommand(line string) {
	const loadPrefix = "load "
	if !strings.HasPrefix(line, loadPrefix) {
		if line != "" {
			kfmt.Printf("unknown command: %s\n", line)
		}
		return
	}

	name := strings.TrimSpace(line[len(loadPrefix):])
	mod := findModule(name)
	if mod == nil {
		kfmt.Printf("no module matching %s\n", name)
		return
	}

	image := mem.ByteSliceAt(mod.Addr, mem.Size(mod.Size))
	entry, err := elf.Load(image)
	if err != nil {
		kfmt.Printf("load failed: %s\n", err.Error())
		return
	}

	kfmt.Printf("Jumping to entry point...\n")
	jumpToEntry(entry, ktable.Pointer())
}

func findModule(name string) *boot.Module {
	modules := boot.Active().Modules()
	for i := range modules {
		if strings.Contains(modules[i].Path, name) {
			return &modules[i]
		}
	}
	return nil
}
