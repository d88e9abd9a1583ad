//go:build !release

// Package assert holds invariant checks that are compiled out of release builds.
package assert

import "fmt"

// That panics with the formatted message if cond is false. Reserve it for conditions that can
// only fail through a bug in this module or a caller breaking a documented contract.
func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
