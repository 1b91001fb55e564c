package early

// debugEnabled is flipped by the debug build tag (see level_debug.go /
// level_release.go). It gates Debugf so that verbose early-boot tracing
// costs nothing in a release build.
var debugEnabled = debugBuild
