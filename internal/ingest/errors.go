package ingest

import (
	"fmt"
	"strings"
)

// The ingest pipeline distinguishes failure classes so callers can branch on
// them with errors.As, while the web boundary collapses any of them to a
// single user-facing string. ShapeError lives in package bagel, where the
// pivot produces it; everything else is declared here.

// DecodeError: the upload bytes are not valid text.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string {
	return fmt.Sprintf("file contents are not valid UTF-8 text: %v", e.Err)
}
func (e *DecodeError) Unwrap() error { return e.Err }

// FormatError: the declared filename is not a recognized tabular file type.
type FormatError struct{ Filename string }

func (e *FormatError) Error() string {
	return fmt.Sprintf("input file %q is not a .csv file", e.Filename)
}

// ParseError: the CSV structure itself is malformed.
type ParseError struct{ Err error }

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed CSV: %v", e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError: required metadata columns are missing. The message enumerates
// them.
type SchemaError struct{ Missing []string }

func (e *SchemaError) Error() string {
	return fmt.Sprintf("the selected CSV is missing the following required metadata columns: %s",
		strings.Join(e.Missing, ", "))
}

// ConsistencyError: the pipelines in the input do not cover the same
// participants and sessions. Deliberately coarse; it names the mismatch class,
// not the rows involved.
type ConsistencyError struct{}

func (e *ConsistencyError) Error() string {
	return "the pipelines in the input do not have the same participants and sessions"
}
