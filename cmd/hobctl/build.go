package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/subcommands"
)

// buildCmd implements subcommands.Command for "build": it cross-compiles
// the kernel package for a freestanding amd64 target and assembles a
// Limine-bootable image directory around it.
type buildCmd struct {
	goos   string
	goarch string
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "cross-compile the kernel and assemble a boot image" }
func (*buildCmd) Usage() string {
	return `build [flags]:
	Compiles kernel/kmain into a freestanding ELF binary and lays out a
	boot image directory containing it alongside the modules configured
	in hobctl.toml.
`
}

func (b *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&b.goos, "goos", "linux", "GOOS used for the freestanding build (cross-compiled, never actually run under this OS)")
	f.StringVar(&b.goarch, "goarch", "amd64", "GOARCH for the kernel build; only amd64 is supported by the PKS/Limine bring-up")
}

func (b *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	conf := args[0].(*Config)

	if err := os.MkdirAll(conf.Build.ImageDir, 0o755); err != nil {
		Fatalf("creating image dir %s: %v", conf.Build.ImageDir, err)
	}

	out := filepath.Join(conf.Build.ImageDir, filepath.Base(conf.Build.KernelELF))
	log.Infof("building kernel -> %s", out)

	cmd := exec.CommandContext(ctx, "go", "build", "-o", out, "./kernel/kmain")
	cmd.Env = append(os.Environ(),
		"GOOS="+b.goos,
		"GOARCH="+b.goarch,
		"CGO_ENABLED=0",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		Fatalf("go build: %v", err)
	}

	for _, mod := range conf.Build.Modules {
		dst := filepath.Join(conf.Build.ImageDir, filepath.Base(mod))
		log.Infof("copying module %s -> %s", mod, dst)
		if err := copyFile(mod, dst); err != nil {
			Fatalf("copying module %s: %v", mod, err)
		}
	}

	log.Infof("image ready at %s", conf.Build.ImageDir)
	return subcommands.ExitSuccess
}

func copyFile(src, dst string) error {
	in, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, in, 0o644)
}
