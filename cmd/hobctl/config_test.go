package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	c, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("expected a missing config file to be tolerated, got %v", err)
	}
	if c.QEMU.Binary != "qemu-system-x86_64" || c.QEMU.Machine != "q35" {
		t.Fatalf("expected defaults, got %+v", c.QEMU)
	}
}

func TestLoadConfigOverlaysFileOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hobctl.toml")
	const body = `
[qemu]
memory = "512M"

[build]
kernel_elf = "out/k.elf"
modules = ["a.elf", "b.elf"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.QEMU.Memory != "512M" {
		t.Fatalf("expected overridden memory 512M, got %s", c.QEMU.Memory)
	}
	if c.QEMU.Machine != "q35" {
		t.Fatalf("expected default machine to survive a partial overlay, got %s", c.QEMU.Machine)
	}
	if c.Build.KernelELF != "out/k.elf" || len(c.Build.Modules) != 2 {
		t.Fatalf("unexpected build section: %+v", c.Build)
	}
}
