//go:build !debug

package cursor

// assertf checks an internal invariant; it only panics in builds tagged debug.
func assertf(cond bool, format string, args ...interface{}) {}
