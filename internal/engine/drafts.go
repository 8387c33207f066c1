package engine

import (
	"context"
	"fmt"
	"math"

	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/repo"
)

// Track names accepted by the draft commands.
const (
	TrackZoom       = "zoom"
	TrackSpeed      = "speed"
	TrackAnnotation = "annotation"
)

// Draft holds uncommitted shadow values for one item per track, the state of
// a slider or drag in progress. Drafts show in View and in playback rate but
// never enter history until committed.
type Draft struct {
	Zoom       *domain.ZoomEffect  `json:"zoom,omitempty"`
	Speed      *domain.SpeedEffect `json:"speed,omitempty"`
	Annotation *domain.Annotation  `json:"annotation,omitempty"`
}

// Drafts returns a copy of the pending drafts.
func (s *Session) Drafts() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Draft{
		Zoom:       cloned(s.draft.Zoom),
		Speed:      cloned(s.draft.Speed),
		Annotation: cloned(s.draft.Annotation),
	}
}

func cloned[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// SetZoomDraft shadows zoom effect id with u applied. Bounds are not
// validated until the draft is committed.
func (s *Session) SetZoomDraft(id string, u EffectUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := edl.Find(s.hist.Current().EDL.Zoom, id)
	if !ok {
		return fmt.Errorf("zoom %s: %w", id, repo.ErrNotFound)
	}
	if s.draft.Zoom != nil && s.draft.Zoom.ID == id {
		z = *s.draft.Zoom
	}
	z.Start, z.End = u.draftBounds(z.Start, z.End, s.hist.Current().Duration)
	if u.Scale != nil {
		z.Scale = *u.Scale
	}
	if u.X != nil {
		z.X = clamp01(*u.X)
	}
	if u.Y != nil {
		z.Y = clamp01(*u.Y)
	}
	s.draft.Zoom = &z
	return nil
}

// SetSpeedDraft shadows speed effect id with u applied.
func (s *Session) SetSpeedDraft(id string, u EffectUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := edl.Find(s.hist.Current().EDL.Speed, id)
	if !ok {
		return fmt.Errorf("speed %s: %w", id, repo.ErrNotFound)
	}
	if s.draft.Speed != nil && s.draft.Speed.ID == id {
		sp = *s.draft.Speed
	}
	sp.Start, sp.End = u.draftBounds(sp.Start, sp.End, s.hist.Current().Duration)
	if u.Speed != nil && *u.Speed > 0 {
		sp.Speed = *u.Speed
	}
	s.draft.Speed = &sp
	return nil
}

// SetAnnotationDraft shadows annotation id with patch applied.
func (s *Session) SetAnnotationDraft(id string, patch edl.AnnotationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.hist.Current().EDL.Annotations
	if s.draft.Annotation != nil && s.draft.Annotation.ID == id {
		base = []domain.Annotation{*s.draft.Annotation}
	}
	res := edl.UpdateAnnotation(base, id, patch)
	if res.Reason == edl.ReasonNotFound {
		return fmt.Errorf("annotation %s: %w", id, repo.ErrNotFound)
	}
	a, _ := edl.FindAnnotation(res.Value, id)
	s.draft.Annotation = &a
	return nil
}

// CommitDraft folds the draft for track into history as one edit.
func (s *Session) CommitDraft(ctx context.Context, track string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch track {
	case TrackZoom:
		d := s.draft.Zoom
		if d == nil {
			return Outcome{}, ErrNoDraft
		}
		s.draft.Zoom = nil
		cur, ok := edl.Find(s.hist.Current().EDL.Zoom, d.ID)
		if !ok {
			return s.outcome(false, edl.ReasonNotFound, d.ID), nil
		}
		u := boundsUpdate(cur.Start, cur.End, d.Start, d.End)
		u.Scale, u.X, u.Y = &d.Scale, &d.X, &d.Y
		return s.updateZoomLocked(ctx, d.ID, u)
	case TrackSpeed:
		d := s.draft.Speed
		if d == nil {
			return Outcome{}, ErrNoDraft
		}
		s.draft.Speed = nil
		cur, ok := edl.Find(s.hist.Current().EDL.Speed, d.ID)
		if !ok {
			return s.outcome(false, edl.ReasonNotFound, d.ID), nil
		}
		u := boundsUpdate(cur.Start, cur.End, d.Start, d.End)
		u.Speed = &d.Speed
		return s.updateSpeedLocked(ctx, d.ID, u)
	case TrackAnnotation:
		d := s.draft.Annotation
		if d == nil {
			return Outcome{}, ErrNoDraft
		}
		s.draft.Annotation = nil
		box, mode := d.Box, d.Mode
		return s.updateAnnotationLocked(ctx, d.ID, edl.AnnotationPatch{
			Start:     &d.Start,
			End:       &d.End,
			Box:       &box,
			Color:     &d.Color,
			Opacity:   &d.Opacity,
			Thickness: &d.Thickness,
			Text:      &d.Text,
			Mode:      &mode,
		})
	default:
		return Outcome{}, fmt.Errorf("unknown track %q", track)
	}
}

// draftBounds applies the time part of u to [start, end) the way the
// committed edit would, before neighbor checks. A move keeps the length, so
// when both edges are given the end follows the start.
func (u EffectUpdate) draftBounds(start, end, duration float64) (float64, float64) {
	if u.Op == edl.OpMove || (u.Op == "" && u.Start != nil && u.End != nil) {
		u.Op = edl.OpMove
		if u.Start != nil {
			u.End = nil
		}
	}
	ed := u.edit(start, end, duration)
	switch ed.Op {
	case edl.OpMove, edl.OpResize:
		return ed.Start, ed.End
	case edl.OpResizeStart:
		return ed.Start, end
	case edl.OpResizeEnd:
		return start, ed.End
	}
	return start, end
}

// boundsUpdate picks the time edit that takes [curStart, curEnd) to
// [start, end). Both edges moving by the same amount is a move; otherwise
// the moved edges are resized.
func boundsUpdate(curStart, curEnd, start, end float64) EffectUpdate {
	startMoved, endMoved := start != curStart, end != curEnd
	switch {
	case startMoved && endMoved:
		op := edl.OpResize
		if math.Abs((end-start)-(curEnd-curStart)) <= 1e-9 {
			op = edl.OpMove
		}
		return EffectUpdate{Op: op, Start: &start, End: &end}
	case startMoved:
		return EffectUpdate{Op: edl.OpResizeStart, Start: &start}
	case endMoved:
		return EffectUpdate{Op: edl.OpResizeEnd, End: &end}
	default:
		return EffectUpdate{Op: edl.OpPayload}
	}
}

// CancelDraft drops the draft for track, or every draft when track is empty.
func (s *Session) CancelDraft(track string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch track {
	case "":
		s.draft = Draft{}
	case TrackZoom:
		s.draft.Zoom = nil
	case TrackSpeed:
		s.draft.Speed = nil
	case TrackAnnotation:
		s.draft.Annotation = nil
	default:
		return fmt.Errorf("unknown track %q", track)
	}
	return nil
}

func (s *Session) viewLocked() domain.Project {
	p := s.hist.Current()
	if d := s.draft.Zoom; d != nil {
		p.EDL.Zoom = replaceByID(p.EDL.Zoom, *d, func(z domain.ZoomEffect) string { return z.ID })
	}
	if d := s.draft.Speed; d != nil {
		p.EDL.Speed = replaceByID(p.EDL.Speed, *d, func(sp domain.SpeedEffect) string { return sp.ID })
	}
	if d := s.draft.Annotation; d != nil {
		p.EDL.Annotations = replaceByID(p.EDL.Annotations, *d, func(a domain.Annotation) string { return a.ID })
	}
	return p
}

func replaceByID[T any](items []T, v T, id func(T) string) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if id(out[i]) == id(v) {
			out[i] = v
		}
	}
	return out
}
