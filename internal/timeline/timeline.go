// Package timeline maps between source time and edited time, the time base
// left after disabled segments are cut and speed effects are applied.
package timeline

import (
	"math"
	"sort"

	"cutline/internal/domain"
)

// Piece is a stretch of source time played at a single speed.
type Piece struct {
	SourceStart float64 `json:"source_start"`
	SourceEnd   float64 `json:"source_end"`
	Speed       float64 `json:"speed"`
	EditedStart float64 `json:"edited_start"`
}

func (p Piece) editedLength() float64 {
	return (p.SourceEnd - p.SourceStart) / p.Speed
}

// Span is one enabled segment placed on the edited timeline.
type Span struct {
	SegmentID      string  `json:"segment_id"`
	SourceStart    float64 `json:"source_start"`
	SourceEnd      float64 `json:"source_end"`
	EditedStart    float64 `json:"edited_start"`
	EditedDuration float64 `json:"edited_duration"`
	Pieces         []Piece `json:"pieces"`
}

type Map struct {
	Spans          []Span  `json:"spans"`
	Total          float64 `json:"total"`
	SourceDuration float64 `json:"source_duration"`
}

// SpeedAt returns the speed of the first speed effect covering t, or 1.
func SpeedAt(effects []domain.SpeedEffect, t float64) float64 {
	for _, e := range effects {
		if t >= e.Start && t < e.End {
			if e.Speed > 0 {
				return e.Speed
			}
			return 1
		}
	}
	return 1
}

// Build lays out the enabled segments of p on the edited timeline.
func Build(p domain.Project) Map {
	m := Map{SourceDuration: p.Duration}
	segs := make([]domain.Segment, 0, len(p.EDL.Segments))
	for _, s := range p.EDL.Segments {
		if s.Enabled {
			segs = append(segs, s)
		}
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })

	edited := 0.0
	for _, s := range segs {
		start := math.Max(0, s.Start)
		end := math.Min(p.Duration, s.End)
		if end <= start {
			continue
		}
		span := Span{SegmentID: s.ID, SourceStart: start, SourceEnd: end, EditedStart: edited}
		bps := breakpoints(start, end, p.EDL.Speed)
		offset := edited
		for i := 0; i+1 < len(bps); i++ {
			piece := Piece{
				SourceStart: bps[i],
				SourceEnd:   bps[i+1],
				Speed:       SpeedAt(p.EDL.Speed, bps[i]),
				EditedStart: offset,
			}
			offset += piece.editedLength()
			span.Pieces = append(span.Pieces, piece)
		}
		span.EditedDuration = offset - edited
		edited = offset
		m.Spans = append(m.Spans, span)
	}
	m.Total = edited
	if len(m.Spans) == 0 {
		m.Total = p.Duration
	}
	return m
}

func breakpoints(start, end float64, speed []domain.SpeedEffect) []float64 {
	bps := []float64{start, end}
	for _, e := range speed {
		if e.Start > start && e.Start < end {
			bps = append(bps, e.Start)
		}
		if e.End > start && e.End < end {
			bps = append(bps, e.End)
		}
	}
	sort.Float64s(bps)
	out := bps[:1]
	for _, b := range bps[1:] {
		if b != out[len(out)-1] {
			out = append(out, b)
		}
	}
	return out
}

// EditedDuration is the length of the edited timeline. Without enabled
// segments it falls back to the source duration.
func EditedDuration(p domain.Project) float64 {
	return Build(p).Total
}

// SourceToEdited maps a source time to edited time. Times outside every
// enabled segment map to the end of the edited timeline.
func SourceToEdited(p domain.Project, t float64) float64 {
	return Build(p).SourceToEdited(t)
}

// EditedToSource maps an edited time back to source time.
func EditedToSource(p domain.Project, t float64) float64 {
	return Build(p).EditedToSource(t)
}

func (m Map) SourceToEdited(t float64) float64 {
	for _, s := range m.Spans {
		if t < s.SourceStart || t > s.SourceEnd {
			continue
		}
		for _, pc := range s.Pieces {
			if t <= pc.SourceEnd {
				return pc.EditedStart + (math.Max(t, pc.SourceStart)-pc.SourceStart)/pc.Speed
			}
		}
		return s.EditedStart + s.EditedDuration
	}
	return m.Total
}

// SourceOffsetToEdited places t at its plain offset from the start of the
// first segment containing it, ignoring speed effects. Times outside every
// segment map to the total.
func (m Map) SourceOffsetToEdited(t float64) float64 {
	for _, s := range m.Spans {
		if t >= s.SourceStart && t <= s.SourceEnd {
			return s.EditedStart + (t - s.SourceStart)
		}
	}
	return m.Total
}

func (m Map) EditedToSource(t float64) float64 {
	if len(m.Spans) == 0 {
		return math.Min(math.Max(0, t), m.SourceDuration)
	}
	if t <= 0 {
		return m.Spans[0].SourceStart
	}
	for _, s := range m.Spans {
		if t >= s.EditedStart+s.EditedDuration {
			continue
		}
		for _, pc := range s.Pieces {
			if t < pc.EditedStart+pc.editedLength() {
				return pc.SourceStart + (t-pc.EditedStart)*pc.Speed
			}
		}
	}
	return m.Spans[len(m.Spans)-1].SourceEnd
}

// Contains reports whether source time t is kept in the edited output.
func (m Map) Contains(t float64) bool {
	for _, s := range m.Spans {
		if t >= s.SourceStart && t < s.SourceEnd {
			return true
		}
	}
	return false
}
