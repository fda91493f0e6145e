package extract

import (
	"errors"
	"fmt"
)

// ErrUnsupportedInput is returned when the top-level input file's
// suffix is not a recognized archive type.
var ErrUnsupportedInput = errors.New("unsupported input type")

// TraversalError reports a tar member whose name would resolve outside
// the extraction destination. The whole containing archive is rejected.
type TraversalError struct {
	Member string
	Reason string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("unsafe member path %q: %s", e.Member, e.Reason)
}

// InputError wraps a fatal problem with the top-level input: missing
// file, wrong file type, or an unsupported suffix. Callers map it to
// exit code 1.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }
