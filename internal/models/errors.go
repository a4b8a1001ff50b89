package models

import (
	"errors"
	"fmt"
)

// ErrInvalidDateFormat is returned when a date string matches none of the accepted formats.
var ErrInvalidDateFormat = errors.New("invalid date format")

// ExtractionError reports an I/O or parse failure while extracting one document.
type ExtractionError struct {
	Location string
	Op       string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.Location, e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError wraps err for the document at location.
func NewExtractionError(location, op string, err error) *ExtractionError {
	return &ExtractionError{Location: location, Op: op, Err: err}
}

// UpstreamServiceError reports a failure of a remote collaborator (search, feeds, model).
type UpstreamServiceError struct {
	Service string
	Err     error
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamServiceError) Unwrap() error { return e.Err }
