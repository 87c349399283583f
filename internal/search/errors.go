package search

import (
	"errors"
	"fmt"
)

// Degradation kinds. A degraded search returns no matches and one of these,
// wrapped in a *DegradedError, instead of failing the caller.
var (
	ErrTimeout         = errors.New("search timed out")
	ErrCanceled        = errors.New("search canceled")
	ErrRootUnavailable = errors.New("document root unavailable")
)

// DegradedError reports why a search produced no results.
type DegradedError struct {
	Keyword string
	Kind    error // one of ErrTimeout, ErrCanceled, ErrRootUnavailable
	Cause   error
}

func (e *DegradedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("search %q degraded: %v", e.Keyword, e.Kind)
	}
	return fmt.Sprintf("search %q degraded: %v: %v", e.Keyword, e.Kind, e.Cause)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *DegradedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// IsDegraded reports whether err is a *DegradedError.
func IsDegraded(err error) bool {
	var de *DegradedError
	return errors.As(err, &de)
}
