package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config mirrors hobctl.toml: the QEMU invocation knobs that build, run and
// test all share. Any field left unset in the file falls back to the
// default returned by defaultConfig.
type Config struct {
	QEMU struct {
		Binary  string `toml:"binary"`
		Machine string `toml:"machine"`
		CPU     string `toml:"cpu"`
		Memory  string `toml:"memory"`
	} `toml:"qemu"`

	Build struct {
		KernelELF string   `toml:"kernel_elf"`
		ImageDir  string   `toml:"image_dir"`
		Modules   []string `toml:"modules"`
	} `toml:"build"`
}

func defaultConfig() *Config {
	c := &Config{}
	c.QEMU.Binary = "qemu-system-x86_64"
	c.QEMU.Machine = "q35"
	c.QEMU.CPU = "max"
	c.QEMU.Memory = "256M"
	c.Build.KernelELF = "kernel/kernel.elf"
	c.Build.ImageDir = "build/image"
	return c
}

// loadConfig reads path if it exists, overlaying its values onto the
// defaults. A missing file is not an error: hobctl works with no config at
// all, it just boots a plain q35/max/256M machine.
func loadConfig(path string) (*Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		if isNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	return c, nil
}

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}
