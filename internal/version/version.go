// Package version carries build metadata, set with -ldflags "-X" at build time.
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-10-16T09:00:00Z
	GoVersion = runtime.Version()               // toolchain that built the binary
)
