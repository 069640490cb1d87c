package trs

import "fmt"

// FormatError reports a structural inconsistency between the declared and
// actual byte layout. Offset is the position at which the inconsistency
// was detected, which helps telling a wrong file apart from a new
// firmware variant.
type FormatError struct {
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid trace file: %s (offset %#x)", e.Msg, e.Offset)
}

func formatErrf(offset int, format string, args ...any) *FormatError {
	return &FormatError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedVersionError means the buffer carries the trace file magic
// but declares a format version this decoder does not handle.
type UnsupportedVersionError struct {
	Version uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported trace format version %d", e.Version)
}
