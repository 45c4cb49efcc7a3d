package geometry

import (
	"errors"
	"fmt"
)

// Geometry errors.
var (
	ErrParse     = errors.New("invalid WKT")
	ErrEncode    = errors.New("cannot encode geometry")
	ErrHierarchy = errors.New("invalid geometry hierarchy")
)

// ParseError describes where a WKT parse failed. It matches ErrParse with
// errors.Is.
type ParseError struct {
	Token  string // offending token, empty at end of input
	Offset int    // byte offset of the token
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid WKT at offset %d: %s", e.Offset, e.Msg)
	}
	return fmt.Sprintf("invalid WKT at offset %d near %q: %s", e.Offset, e.Token, e.Msg)
}

// Unwrap returns ErrParse.
func (e *ParseError) Unwrap() error { return ErrParse }
