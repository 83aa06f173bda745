package export

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable = errors.New("export unavailable")
	ErrFailed      = errors.New("export failed")
)

// UnavailableError reports that an export could not start.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnavailable, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// FailedError reports an aborted export. Slide is -1 when the failure was
// not tied to a slide.
type FailedError struct {
	Slide int
	Err   error
}

func (e *FailedError) Error() string {
	if e.Slide < 0 {
		return fmt.Sprintf("%s: %v", ErrFailed, e.Err)
	}
	return fmt.Sprintf("%s at slide %d: %v", ErrFailed, e.Slide+1, e.Err)
}

func (e *FailedError) Unwrap() []error { return []error{ErrFailed, e.Err} }
