package mp

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the database has no entry for the formula.
var ErrNotFound = errors.New("formula not found")

// ErrEmptyFormula reports a blank formula argument.
var ErrEmptyFormula = errors.New("empty formula")

// AuthError reports a rejected API key. Retrying cannot help; callers
// should abort the run.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d)", e.StatusCode)
}

// RequestError wraps a failed request: either the retry budget was
// exhausted or the failure was not worth retrying. Attempts counts the
// requests actually made.
type RequestError struct {
	Formula  string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request for %q failed after %d attempts: %v", e.Formula, e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
