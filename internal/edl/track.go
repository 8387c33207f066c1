package edl

import (
	"fmt"
	"math"

	"cutline/internal/domain"
)

// Span is the minimal shape an effect needs to live on a Track.
type Span[T any] interface {
	comparable
	EffectID() string
	Bounds() (start, end float64)
	WithBounds(start, end float64) T
}

// Op names the kind of edit applied to an existing effect.
type Op string

const (
	OpMove        Op = "move"
	OpResizeStart Op = "resize_start"
	OpResizeEnd   Op = "resize_end"
	OpResize      Op = "resize"
	OpPayload     Op = "payload"
)

// Valid reports whether op is a known edit kind.
func (op Op) Valid() bool {
	switch op {
	case OpMove, OpResizeStart, OpResizeEnd, OpResize, OpPayload:
		return true
	}
	return false
}

// ClassifyPatch derives an Op from which time fields a caller supplied:
// both means move, one means a resize of that edge, none means payload only.
func ClassifyPatch(hasStart, hasEnd bool) Op {
	switch {
	case hasStart && hasEnd:
		return OpMove
	case hasStart:
		return OpResizeStart
	case hasEnd:
		return OpResizeEnd
	default:
		return OpPayload
	}
}

// Edit describes a time change to an effect. Move and Resize use both
// edges, and a Move must keep the effect's duration. ResizeStart uses Start;
// ResizeEnd uses End.
type Edit struct {
	Op    Op
	Start float64
	End   float64
}

// Track enforces the no-overlap and minimum-duration rules for one effect
// track. The same implementation serves zoom and speed.
type Track[T Span[T]] struct {
	MinDuration float64
}

// NewTrack returns a track using minDuration, or domain.MinEffectDuration
// when minDuration is not positive.
func NewTrack[T Span[T]](minDuration float64) Track[T] {
	if minDuration <= 0 {
		minDuration = domain.MinEffectDuration
	}
	return Track[T]{MinDuration: minDuration}
}

func (tr Track[T]) tooShort(start, end float64) bool {
	return end-start < tr.MinDuration
}

// settle snaps an end that misses the minimum duration only by float noise
// up to the first value that meets it, as long as the snapped range still
// clears every effect other than items[skip]. It reports false when the
// range is too short.
func (tr Track[T]) settle(items []T, skip int, start, end float64) (float64, bool) {
	if !tr.tooShort(start, end) {
		return end, true
	}
	if end-start < tr.MinDuration-epsilon {
		return end, false
	}
	snapped := end
	for tr.tooShort(start, snapped) {
		snapped = math.Nextafter(snapped, math.Inf(1))
	}
	for i, it := range items {
		if i == skip {
			continue
		}
		if s, e := it.Bounds(); s < snapped && e > start {
			return end, false
		}
	}
	return snapped, true
}

// Add inserts a new effect at [start, end). The end is clipped to the
// nearest later effect; a start inside an existing effect aborts.
func (tr Track[T]) Add(items []T, start, end float64, build func(id string, start, end float64) T) Result[[]T] {
	if math.IsNaN(start) || math.IsNaN(end) {
		return rejected(items, ReasonInvalidRange)
	}
	adjustedEnd := end
	for _, it := range items {
		s, e := it.Bounds()
		if start >= s && start < e {
			return rejected(items, ReasonStartInsideEffect)
		}
		if s > start && s < adjustedEnd {
			adjustedEnd = s
		}
	}
	adjustedEnd, ok := tr.settle(items, -1, start, adjustedEnd)
	if !ok {
		return rejected(items, ReasonTooShort)
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	out = append(out, build(domain.NewID(), start, adjustedEnd))
	return applied(out)
}

// Update applies edit and patch to the effect with the given id. Moves that
// would touch a neighbor or change the duration abort; resizes clamp the
// moving edges to the neighbors instead. patch may be nil.
func (tr Track[T]) Update(items []T, id string, edit Edit, patch func(T) T) Result[[]T] {
	idx := indexOf(items, id)
	if idx < 0 {
		return rejected(items, ReasonNotFound)
	}
	current := items[idx]
	curStart, curEnd := current.Bounds()
	newStart, newEnd := curStart, curEnd

	switch edit.Op {
	case OpMove:
		newStart, newEnd = edit.Start, edit.End
		if math.Abs((newEnd-newStart)-(curEnd-curStart)) > epsilon {
			return rejected(items, ReasonLengthChanged)
		}
		for i, other := range items {
			if i == idx {
				continue
			}
			s, e := other.Bounds()
			contains := newStart <= s && newEnd >= e
			swallowsStart := s < newStart && newStart < e
			swallowsEnd := s < newEnd && newEnd < e
			if contains || swallowsStart || swallowsEnd {
				return rejected(items, ReasonOverlap)
			}
		}
	case OpResizeStart:
		newStart = edit.Start
		for i, other := range items {
			if i == idx {
				continue
			}
			s, e := other.Bounds()
			if s < newEnd && e > newStart {
				newStart = math.Max(newStart, e)
			}
		}
	case OpResizeEnd:
		newEnd = edit.End
		for i, other := range items {
			if i == idx {
				continue
			}
			s, e := other.Bounds()
			if s < newEnd && e > newStart {
				newEnd = math.Min(newEnd, s)
			}
		}
	case OpResize:
		newStart, newEnd = edit.Start, edit.End
		for i, other := range items {
			if i == idx {
				continue
			}
			s, e := other.Bounds()
			if s >= newEnd || e <= newStart {
				continue
			}
			if e <= curStart {
				newStart = math.Max(newStart, e)
			} else {
				newEnd = math.Min(newEnd, s)
			}
		}
	case OpPayload:
	default:
		return rejected(items, ReasonInvalidRange)
	}
	if math.IsNaN(newStart) || math.IsNaN(newEnd) {
		return rejected(items, ReasonInvalidRange)
	}
	newEnd, ok := tr.settle(items, idx, newStart, newEnd)
	if !ok {
		return rejected(items, ReasonTooShort)
	}

	updated := current
	if patch != nil {
		updated = patch(updated)
	}
	updated = updated.WithBounds(newStart, newEnd)
	if updated == current {
		return rejected(items, ReasonNoChange)
	}
	out := make([]T, len(items))
	copy(out, items)
	out[idx] = updated
	return applied(out)
}

// Delete removes the effect with the given id.
func (tr Track[T]) Delete(items []T, id string) Result[[]T] {
	idx := indexOf(items, id)
	if idx < 0 {
		return rejected(items, ReasonNotFound)
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	return applied(out)
}

// Check verifies the track invariants over items.
func (tr Track[T]) Check(items []T) error {
	for i, a := range items {
		as, ae := a.Bounds()
		if tr.tooShort(as, ae) {
			return fmt.Errorf("effect %s shorter than %.2fs", a.EffectID(), tr.MinDuration)
		}
		for _, b := range items[i+1:] {
			bs, be := b.Bounds()
			if !(ae <= bs || be <= as) {
				return fmt.Errorf("effects %s and %s overlap", a.EffectID(), b.EffectID())
			}
		}
	}
	return nil
}

// Find returns the effect with the given id.
func Find[T Span[T]](items []T, id string) (T, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return items[idx], true
}

func indexOf[T Span[T]](items []T, id string) int {
	for i, it := range items {
		if it.EffectID() == id {
			return i
		}
	}
	return -1
}
