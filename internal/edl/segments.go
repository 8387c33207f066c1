package edl

import (
	"math"

	"cutline/internal/domain"
)

// CutAt splits the enabled segment strictly containing t. The left half
// keeps the original id.
func CutAt(segs []domain.Segment, t float64) Result[[]domain.Segment] {
	for i, seg := range segs {
		if !seg.Enabled || !(seg.Start < t && t < seg.End) {
			continue
		}
		left := seg
		left.End = t
		right := domain.Segment{ID: domain.NewID(), Start: t, End: seg.End, Enabled: true}
		out := make([]domain.Segment, 0, len(segs)+1)
		out = append(out, segs[:i]...)
		out = append(out, left, right)
		out = append(out, segs[i+1:]...)
		return applied(out)
	}
	return rejected(segs, ReasonNotInsideSegment)
}

// ToggleSegment flips the enabled flag of a segment.
func ToggleSegment(segs []domain.Segment, id string) Result[[]domain.Segment] {
	idx := segmentIndex(segs, id)
	if idx < 0 {
		return rejected(segs, ReasonNotFound)
	}
	out := make([]domain.Segment, len(segs))
	copy(out, segs)
	out[idx].Enabled = !out[idx].Enabled
	return applied(out)
}

// DeleteSegment removes a segment, refusing to remove the last one.
func DeleteSegment(segs []domain.Segment, id string) Result[[]domain.Segment] {
	idx := segmentIndex(segs, id)
	if idx < 0 {
		return rejected(segs, ReasonNotFound)
	}
	if len(segs) <= 1 {
		return rejected(segs, ReasonLastSegment)
	}
	out := make([]domain.Segment, 0, len(segs)-1)
	out = append(out, segs[:idx]...)
	out = append(out, segs[idx+1:]...)
	return applied(out)
}

// TrimSegment moves the bounds of a segment within [0, duration].
func TrimSegment(segs []domain.Segment, id string, start, end, duration float64) Result[[]domain.Segment] {
	idx := segmentIndex(segs, id)
	if idx < 0 {
		return rejected(segs, ReasonNotFound)
	}
	start = math.Max(0, start)
	end = math.Min(duration, end)
	if math.IsNaN(start) || math.IsNaN(end) || end <= start {
		return rejected(segs, ReasonInvalidRange)
	}
	if segs[idx].Start == start && segs[idx].End == end {
		return rejected(segs, ReasonNoChange)
	}
	out := make([]domain.Segment, len(segs))
	copy(out, segs)
	out[idx].Start = start
	out[idx].End = end
	return applied(out)
}

func segmentIndex(segs []domain.Segment, id string) int {
	for i, s := range segs {
		if s.ID == id {
			return i
		}
	}
	return -1
}
