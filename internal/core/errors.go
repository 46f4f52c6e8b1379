package core

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the conversion pipeline. Their messages are
// matched by MapError, so keep the wording in sync with errorPatterns.
var (
	// ErrParseFailure means no header row could be recovered from the input.
	ErrParseFailure = errors.New("parse failure: no rows could be recovered")

	// ErrExportFailure means the target format backend could not serialize
	// the table.
	ErrExportFailure = errors.New("export failure")

	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNoFile            = errors.New("no file provided")
	ErrNoFileSelected    = errors.New("no file selected")
	ErrEmptyFile         = errors.New("empty file")
	ErrFileTooLarge      = errors.New("file too large")
)

// exportError wraps a backend error so errors.Is(err, ErrExportFailure)
// holds while the backend cause stays reachable through errors.As.
type exportError struct {
	format Format
	err    error
}

func (e *exportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExportFailure, e.format, e.err)
}

func (e *exportError) Is(target error) bool { return target == ErrExportFailure }

func (e *exportError) Unwrap() error { return e.err }

// NewExportError marks err as an export failure for format f.
func NewExportError(f Format, err error) error {
	if err == nil {
		return nil
	}
	return &exportError{format: f, err: err}
}
