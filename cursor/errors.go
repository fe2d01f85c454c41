package cursor

import (
	"errors"
)

var (
	ErrClosed           = errors.New("cursor: closed")
	ErrNilCursor        = errors.New("cursor: nil cursor")
	ErrNoPage           = errors.New("cursor: current tuple has no resident page")
	ErrInvalidIndex     = errors.New("cursor: invalid value index")
	ErrNotOnTuple       = errors.New("cursor: not positioned on a tuple")
	ErrNoQuery          = errors.New("cursor: list file has no query")
	ErrBadPosition      = errors.New("cursor: unknown position")
	ErrValueInvalidated = errors.New("cursor: value invalidated by cursor movement")
)
