// Package edl holds the validated mutations over an edit decision list.
// Every operation is copy-with-change: inputs are never modified, and a
// rejected operation hands back its input untouched together with a Reason.
package edl

// Reason explains why an operation had no effect.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNotFound          Reason = "not_found"
	ReasonStartInsideEffect Reason = "start_inside_effect"
	ReasonTooShort          Reason = "too_short"
	ReasonOverlap           Reason = "overlap"
	ReasonLengthChanged     Reason = "length_changed"
	ReasonNotInsideSegment  Reason = "not_inside_segment"
	ReasonLastSegment       Reason = "last_segment"
	ReasonNoChange          Reason = "no_change"
	ReasonInvalidRange      Reason = "invalid_range"
	ReasonInvalidMode       Reason = "invalid_mode"
)

// Result is the outcome of a mutation: either the new value, or the
// unchanged input and the reason it was rejected.
type Result[T any] struct {
	Value   T
	Applied bool
	Reason  Reason
}

func applied[T any](v T) Result[T] {
	return Result[T]{Value: v, Applied: true}
}

func rejected[T any](v T, reason Reason) Result[T] {
	return Result[T]{Value: v, Reason: reason}
}

// epsilon absorbs float noise in duration comparisons.
const epsilon = 1e-9
