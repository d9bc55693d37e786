package loader

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// TransportError marks a failure to fetch cloud bytes from a Source, as
// opposed to failures decoding or processing them. It wraps the underlying
// source error.
type TransportError struct {
	ID  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetching %q: %v", e.ID, e.Err)
}

// Unwrap returns the underlying source error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err came from the download stage.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsCancelled reports whether err means the load was cancelled or superseded
// rather than having failed.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
