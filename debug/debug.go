// Package debug holds environment driven debug switches.
package debug

import (
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Apply    bool
	Sync     bool
	Presence bool
}

var d *debug

func init() {
	d = &debug{}
	d.Apply = boolEnv("SHAREDOC_DEBUG_APPLY")
	d.Sync = boolEnv("SHAREDOC_DEBUG_SYNC")
	d.Presence = boolEnv("SHAREDOC_DEBUG_PRESENCE")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

// Apply reports whether replicated-document op integration is traced.
func Apply() bool {
	return d.Apply
}

// Sync reports whether session sync traffic is traced.
func Sync() bool {
	return d.Sync
}

func Presence() bool {
	return d.Presence
}

func Logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
