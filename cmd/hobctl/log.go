package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

// log is hobctl's own structured logger. It has nothing to do with the
// kernel's kfmt sink; this one writes to the host's stderr about the build
// and emulator-launch process, not about anything running inside the VM.
var log = logrus.New()

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Fatalf logs err at error level and exits the process with status 1. It
// mirrors the fatal-and-exit helper every subcommand here reaches for
// instead of returning an error subcommands.Execute has no way to print.
func Fatalf(format string, args ...interface{}) {
	log.Errorf(format, args...)
	os.Exit(1)
}
