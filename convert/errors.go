package convert

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrStructuralImbalance reports an End without a matching Start, or a
	// stream that ends with open ranges.
	ErrStructuralImbalance = errors.New("structural imbalance")
	// ErrUnresolvedMarkReference reports a closing link whose mark
	// definition is not registered in the open block.
	ErrUnresolvedMarkReference = errors.New("unresolved mark reference")
	// ErrResolverFailure wraps an error returned by the AssetResolver.
	ErrResolverFailure = errors.New("asset resolver failure")
)

// Error describes why a conversion failed and which event caused it.
// errors.Is matches both Kind and the underlying cause.
type Error struct {
	Index  int    // zero based position of Event in the stream, -1 at end of stream
	Event  Event  // offending event, zero at end of stream
	Kind   error  // one of the Err* sentinels above
	Reason string // human readable detail
	Err    error  // cause, set for resolver failures

	located bool
}

func (e *Error) Error() string {
	where := "end of stream"
	if e.Index >= 0 {
		where = fmt.Sprintf("event %d %s", e.Index, e.Event)
	}
	msg := fmt.Sprintf("convert at %s: %v", where, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func imbalance(format string, args ...any) *Error {
	return &Error{Kind: ErrStructuralImbalance, Reason: fmt.Sprintf(format, args...)}
}

func unresolved(format string, args ...any) *Error {
	return &Error{Kind: ErrUnresolvedMarkReference, Reason: fmt.Sprintf(format, args...)}
}

func resolverFailure(err error, format string, args ...any) *Error {
	return &Error{Kind: ErrResolverFailure, Err: errors.Wrapf(err, format, args...)}
}
