//go:build !debug

package early

const debugBuild = false
