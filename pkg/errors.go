package hepmc

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrNoVersion         = errors.New("missing HepMC::Version line")
	ErrNoListingStart    = errors.New("missing start of event listing")
	ErrNotEventHeader    = errors.New("line is not an event header")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrUnexpectedRecord  = errors.New("unexpected record")
	ErrDanglingVertex    = errors.New("vertex reference does not resolve")
	ErrDuplicateBarcode  = errors.New("duplicate barcode")
	ErrSchema            = errors.New("record does not match schema")
	ErrAncestorCycle     = errors.New("cycle in particle ancestry")
	ErrNegativeThreshold = errors.New("distance threshold must not be negative")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// StreamError is fatal: the input cannot be established as an event listing,
// or the underlying stream failed.
type StreamError struct {
	Line int
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("event stream broken at line %d: %v", e.Line, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// HeaderError reports a line that should have started an event but did not.
type HeaderError struct {
	Line int
	Text string
	Err  error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("bad event header at line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }

// RecordError describes a single record that was skipped while reading an
// event. It never aborts the read.
type RecordError struct {
	Event int
	Line  int
	Tag   string
	Text  string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("event %d: skipped %s record at line %d %q: %v", e.Event, e.Tag, e.Line, e.Text, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// DecodeError represents a flat record that cannot be turned back into the
// event graph.
type DecodeError struct {
	Kind  string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decoding %s record: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("decoding %s record, field %q: %v", e.Kind, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
