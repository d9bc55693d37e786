package las

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatError indicates a structurally invalid LAS payload: a bad magic
// signature, an unsupported version or point format, or record extents that
// fall outside the buffer. Parsing never returns partial data alongside one.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid LAS data: " + e.Reason
}

func newFormatErrorf(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is (or wraps) a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
