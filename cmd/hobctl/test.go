package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/subcommands"
)

// testCmd implements subcommands.Command for both "test" and "test-no-pks".
// Both boot the image with the isa-debug-exit device wired to IO port
// 0x604; the kernel test harness writes an exit byte to that port when it
// finishes, which QEMU turns into its own process exit code
// ((byte << 1) | 1). test-no-pks additionally masks the pks CPU flag so
// the kernel's own feature probe takes the no-PKS path.
type testCmd struct {
	pks  bool
	name string
}

func (t *testCmd) Name() string {
	if t.name != "" {
		return t.name
	}
	return "test"
}

func (t *testCmd) Synopsis() string {
	if t.pks {
		return "run the kernel test harness under QEMU with PKS enabled"
	}
	return "run the kernel test harness under QEMU with PKS disabled"
}

func (*testCmd) Usage() string {
	return `test|test-no-pks [flags]:
	Boots the image with the isa-debug-exit device attached and reports
	the exit byte the kernel test harness writes to it.
`
}

func (*testCmd) SetFlags(f *flag.FlagSet) {}

func (t *testCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	conf := args[0].(*Config)

	cpu := conf.QEMU.CPU
	if !t.pks {
		cpu += ",-pks"
	}

	qemuArgs := []string{
		"-machine", conf.QEMU.Machine,
		"-cpu", cpu,
		"-m", conf.QEMU.Memory,
		"-kernel", filepath.Join(conf.Build.ImageDir, filepath.Base(conf.Build.KernelELF)),
		"-serial", "stdio",
		"-display", "none",
		"-device", "isa-debug-exit,iobase=0x604,iosize=0x04",
	}

	log.Infof("launching %s %v", conf.QEMU.Binary, qemuArgs)
	cmd := exec.CommandContext(ctx, conf.QEMU.Binary, qemuArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	exitByte, ok := decodeDebugExitStatus(cmd)
	if !ok {
		if err != nil {
			Fatalf("%s: %v", conf.QEMU.Binary, err)
		}
		log.Infof("test harness exited without writing to the debug-exit device")
		return subcommands.ExitFailure
	}

	log.Infof("test harness exit byte: %#x", exitByte)
	if exitByte != 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// decodeDebugExitStatus recovers the byte the kernel wrote to the
// isa-debug-exit device from QEMU's own process exit code, which QEMU sets
// to (byte << 1) | 1 whenever that device is written.
func decodeDebugExitStatus(cmd *exec.Cmd) (byte, bool) {
	if cmd.ProcessState == nil {
		return 0, false
	}
	code := cmd.ProcessState.ExitCode()
	if code <= 0 || code&1 == 0 {
		return 0, false
	}
	return byte(code >> 1), true
}
