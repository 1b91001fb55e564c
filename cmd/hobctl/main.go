// Command hobctl is the host-side build and launch tool for the kernel:
// it assembles the boot image, boots it under an emulator, and drives the
// in-kernel test harness with or without PKS enabled.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "hobctl.toml", "path to the hobctl TOML config file")

// forEachCmd centralizes every subcommand registration so main and any
// future caller (tests, a help generator) see the exact same set.
func forEachCmd(cb func(cmd subcommands.Command, group string)) {
	cb(subcommands.HelpCommand(), "")
	cb(subcommands.FlagsCommand(), "")

	cb(&buildCmd{}, "")
	cb(&runCmd{}, "")
	cb(&testCmd{pks: true}, "")
	cb(&testCmd{pks: false, name: "test-no-pks"}, "")
}

func main() {
	forEachCmd(subcommands.Register)

	flag.Parse()

	conf, err := loadConfig(*configPath)
	if err != nil {
		Fatalf("loading %s: %v", *configPath, err)
	}

	os.Exit(int(subcommands.Execute(context.Background(), conf)))
}
