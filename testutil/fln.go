package testutil

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// FileLine is the location of a test case; the zero value prints as nothing.
type FileLine struct {
	File string
	Line int
}

func (fl FileLine) String() string {
	if fl.File == "" || fl.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d: ", filepath.Base(fl.File), fl.Line)
}

// Here returns the location of its caller.
func Here() FileLine {
	_, fn, ln, ok := runtime.Caller(1)
	if !ok {
		return FileLine{}
	}
	return FileLine{File: fn, Line: ln}
}
