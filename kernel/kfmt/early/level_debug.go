//go:build debug

package early

// debugBuild is true when the kernel is built with -tags debug, matching
// the compile-time log_level switch described in the external interfaces
// section of the spec.
const debugBuild = true
