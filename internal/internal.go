// Package internal holds build metadata.
package internal

// Version is the build version, overridable at build time with -ldflags.
var Version = "dev"
