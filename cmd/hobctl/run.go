package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/creack/pty"
	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
)

// runCmd implements subcommands.Command for "run": it boots the assembled
// image under QEMU. Non-interactive runs hand the process off entirely via
// unix.Exec, so QEMU inherits hobctl's stdio and exit status directly.
// Interactive runs instead attach QEMU's serial console to a pty so the
// host terminal can type into the in-kernel shell.
type runCmd struct {
	interactive bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "boot the image under QEMU" }
func (*runCmd) Usage() string {
	return `run [flags]:
	Boots build.image_dir under the configured QEMU binary.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.interactive, "interactive", false, "attach the serial console to the controlling terminal via a pty")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	conf := args[0].(*Config)
	qemuArgs := baseQEMUArgs(conf)

	if !r.interactive {
		qemuArgs = append(qemuArgs, "-serial", "stdio")
		argv := append([]string{conf.QEMU.Binary}, qemuArgs...)
		log.Infof("exec %v", argv)
		if err := unix.Exec(resolveBinary(conf.QEMU.Binary), argv, os.Environ()); err != nil {
			Fatalf("exec %s: %v", conf.QEMU.Binary, err)
		}
		return subcommands.ExitSuccess
	}

	pseudo, tty, err := pty.Open()
	if err != nil {
		Fatalf("opening pty: %v", err)
	}
	defer pseudo.Close()
	defer tty.Close()

	qemuArgs = append(qemuArgs, "-serial", "pty")
	cmd := exec.CommandContext(ctx, conf.QEMU.Binary, qemuArgs...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = os.Stderr

	log.Infof("launching %s %v (interactive)", conf.QEMU.Binary, qemuArgs)
	if err := cmd.Start(); err != nil {
		Fatalf("starting %s: %v", conf.QEMU.Binary, err)
	}

	go io.Copy(pseudo, os.Stdin)
	go io.Copy(os.Stdout, pseudo)

	if err := cmd.Wait(); err != nil {
		Fatalf("%s exited: %v", conf.QEMU.Binary, err)
	}
	return subcommands.ExitSuccess
}

func baseQEMUArgs(conf *Config) []string {
	return []string{
		"-machine", conf.QEMU.Machine,
		"-cpu", conf.QEMU.CPU,
		"-m", conf.QEMU.Memory,
		"-kernel", filepath.Join(conf.Build.ImageDir, filepath.Base(conf.Build.KernelELF)),
	}
}

func resolveBinary(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}
