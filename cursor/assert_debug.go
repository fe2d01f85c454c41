//go:build debug

package cursor

import (
	"fmt"
)

func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("cursor: assertion failed: "+format, args...))
	}
}
