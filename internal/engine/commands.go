package engine

import (
	"context"
	"math"

	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/events"
)

func (s *Session) CutAt(ctx context.Context, t float64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := edl.CutAt(p.EDL.Segments, t)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Segments = res.Value
		return p, edl.ReasonNone
	}, func(p domain.Project) record {
		return record{event: events.SegmentCut, kind: "segment", entityID: segmentStartingAt(p.EDL.Segments, t), payload: events.EventPayload{"at": t}}
	})
}

func segmentStartingAt(segs []domain.Segment, t float64) string {
	for _, seg := range segs {
		if seg.Start == t {
			return seg.ID
		}
	}
	return ""
}

func (s *Session) ToggleSegment(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := edl.ToggleSegment(p.EDL.Segments, id)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Segments = res.Value
		return p, edl.ReasonNone
	}, func(p domain.Project) record {
		enabled := false
		for _, seg := range p.EDL.Segments {
			if seg.ID == id {
				enabled = seg.Enabled
			}
		}
		return record{event: events.SegmentToggled, kind: "segment", entityID: id, payload: events.EventPayload{"enabled": enabled}}
	})
}

func (s *Session) DeleteSegment(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := edl.DeleteSegment(p.EDL.Segments, id)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Segments = res.Value
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.SegmentDeleted, kind: "segment", entityID: id}
	})
}

func (s *Session) TrimSegment(ctx context.Context, id string, start, end float64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := edl.TrimSegment(p.EDL.Segments, id, start, end, p.Duration)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Segments = res.Value
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.SegmentTrimmed, kind: "segment", entityID: id, payload: events.EventPayload{"start": start, "end": end}}
	})
}

// EffectUpdate changes an effect. Op picks the time edit explicitly; when
// empty it is inferred from which of Start and End are set. Payload fields
// left nil are unchanged.
type EffectUpdate struct {
	Op    edl.Op
	Start *float64
	End   *float64
	Scale *float64
	X     *float64
	Y     *float64
	Speed *float64
}

func (u EffectUpdate) edit(curStart, curEnd, duration float64) edl.Edit {
	op := u.Op
	if op == "" {
		op = edl.ClassifyPatch(u.Start != nil, u.End != nil)
	}
	ed := edl.Edit{Op: op, Start: curStart, End: curEnd}
	if u.Start != nil {
		ed.Start = *u.Start
	}
	if u.End != nil {
		ed.End = *u.End
	}
	switch op {
	case edl.OpMove:
		length := curEnd - curStart
		switch {
		case u.Start != nil && u.End == nil:
			ed.End = ed.Start + length
		case u.Start == nil && u.End != nil:
			ed.Start = ed.End - length
		}
		shifted := math.Min(math.Max(0, ed.Start), math.Max(0, duration-length))
		ed.Start, ed.End = shifted, ed.End+(shifted-ed.Start)
	case edl.OpResize:
		ed.Start, ed.End = math.Max(0, ed.Start), math.Min(duration, ed.End)
	case edl.OpResizeStart:
		ed.Start = math.Max(0, ed.Start)
	case edl.OpResizeEnd:
		ed.End = math.Min(duration, ed.End)
	}
	return ed
}

func (u EffectUpdate) payload() events.EventPayload {
	out := events.EventPayload{}
	if u.Op != "" {
		out["op"] = string(u.Op)
	}
	for k, v := range map[string]*float64{"start": u.Start, "end": u.End, "scale": u.Scale, "x": u.X, "y": u.Y, "speed": u.Speed} {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// AddZoom adds a zoom effect at [start, end) with the default scale focused
// on the frame centre.
func (s *Session) AddZoom(ctx context.Context, start, end float64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id string
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		st, en := clampRange(start, end, p.Duration)
		res := s.zoom.Add(p.EDL.Zoom, st, en, func(newID string, st, en float64) domain.ZoomEffect {
			id = newID
			return domain.ZoomEffect{ID: newID, Start: st, End: en, Scale: s.editor.DefaultZoomScale, X: 0.5, Y: 0.5}
		})
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Zoom = res.Value
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.ZoomAdded, kind: "zoom", entityID: id, payload: events.EventPayload{"start": start, "end": end}}
	})
}

func (s *Session) UpdateZoom(ctx context.Context, id string, u EffectUpdate) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateZoomLocked(ctx, id, u)
}

func (s *Session) updateZoomLocked(ctx context.Context, id string, u EffectUpdate) (Outcome, error) {
	if u.Scale != nil && (*u.Scale < 1 || math.IsNaN(*u.Scale)) {
		return s.outcome(false, edl.ReasonInvalidRange, id), nil
	}
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		cur, ok := edl.Find(p.EDL.Zoom, id)
		if !ok {
			return p, edl.ReasonNotFound
		}
		res := s.zoom.Update(p.EDL.Zoom, id, u.edit(cur.Start, cur.End, p.Duration), func(z domain.ZoomEffect) domain.ZoomEffect {
			if u.Scale != nil {
				z.Scale = *u.Scale
			}
			if u.X != nil {
				z.X = clamp01(*u.X)
			}
			if u.Y != nil {
				z.Y = clamp01(*u.Y)
			}
			return z
		})
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Zoom = res.Value
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.ZoomUpdated, kind: "zoom", entityID: id, payload: u.payload()}
	})
}

func (s *Session) DeleteZoom(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := s.zoom.Delete(p.EDL.Zoom, id)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Zoom = res.Value
		if s.draft.Zoom != nil && s.draft.Zoom.ID == id {
			s.draft.Zoom = nil
		}
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.ZoomDeleted, kind: "zoom", entityID: id}
	})
}

// AddSpeed adds a speed effect at [start, end) with the default multiplier.
func (s *Session) AddSpeed(ctx context.Context, start, end float64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id string
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		st, en := clampRange(start, end, p.Duration)
		res := s.speed.Add(p.EDL.Speed, st, en, func(newID string, st, en float64) domain.SpeedEffect {
			id = newID
			return domain.SpeedEffect{ID: newID, Start: st, End: en, Speed: s.editor.DefaultSpeed}
		})
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Speed = res.Value
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.SpeedAdded, kind: "speed", entityID: id, payload: events.EventPayload{"start": start, "end": end}}
	})
}

func (s *Session) UpdateSpeed(ctx context.Context, id string, u EffectUpdate) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateSpeedLocked(ctx, id, u)
}

func (s *Session) updateSpeedLocked(ctx context.Context, id string, u EffectUpdate) (Outcome, error) {
	if u.Speed != nil && (*u.Speed <= 0 || math.IsNaN(*u.Speed) || math.IsInf(*u.Speed, 0)) {
		return s.outcome(false, edl.ReasonInvalidRange, id), nil
	}
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		cur, ok := edl.Find(p.EDL.Speed, id)
		if !ok {
			return p, edl.ReasonNotFound
		}
		res := s.speed.Update(p.EDL.Speed, id, u.edit(cur.Start, cur.End, p.Duration), func(sp domain.SpeedEffect) domain.SpeedEffect {
			if u.Speed != nil {
				sp.Speed = *u.Speed
			}
			return sp
		})
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Speed = res.Value
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.SpeedUpdated, kind: "speed", entityID: id, payload: u.payload()}
	})
}

func (s *Session) DeleteSpeed(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := s.speed.Delete(p.EDL.Speed, id)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Speed = res.Value
		if s.draft.Speed != nil && s.draft.Speed.ID == id {
			s.draft.Speed = nil
		}
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.SpeedDeleted, kind: "speed", entityID: id}
	})
}

func (s *Session) AddAnnotation(ctx context.Context, start, end float64, mode domain.AnnotationMode) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id string
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := edl.AddAnnotation(p.EDL.Annotations, start, end, mode, p.Duration)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Annotations = res.Value
		id = res.Value[len(res.Value)-1].ID
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.AnnotationAdded, kind: "annotation", entityID: id, payload: events.EventPayload{"start": start, "end": end, "mode": string(mode)}}
	})
}

func (s *Session) UpdateAnnotation(ctx context.Context, id string, patch edl.AnnotationPatch) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateAnnotationLocked(ctx, id, patch)
}

func (s *Session) updateAnnotationLocked(ctx context.Context, id string, patch edl.AnnotationPatch) (Outcome, error) {
	if patch.Mode != nil && !patch.Mode.Valid() {
		return s.outcome(false, edl.ReasonInvalidMode, id), nil
	}
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		if patch.Start != nil {
			v := math.Max(0, *patch.Start)
			patch.Start = &v
		}
		if patch.End != nil {
			v := math.Min(p.Duration, *patch.End)
			patch.End = &v
		}
		res := edl.UpdateAnnotation(p.EDL.Annotations, id, patch)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Annotations = res.Value
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.AnnotationUpdated, kind: "annotation", entityID: id}
	})
}

func (s *Session) DeleteAnnotation(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := edl.DeleteAnnotation(p.EDL.Annotations, id)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Annotations = res.Value
		if s.draft.Annotation != nil && s.draft.Annotation.ID == id {
			s.draft.Annotation = nil
		}
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.AnnotationDeleted, kind: "annotation", entityID: id}
	})
}

func (s *Session) DuplicateAnnotation(ctx context.Context, id string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newID string
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		res := edl.DuplicateAnnotation(p.EDL.Annotations, id, s.editor.DuplicateOffset, p.Duration)
		if !res.Applied {
			return p, res.Reason
		}
		p.EDL.Annotations = res.Value
		newID = res.Value[len(res.Value)-1].ID
		return p, edl.ReasonNone
	}, func(domain.Project) record {
		return record{event: events.AnnotationCopied, kind: "annotation", entityID: newID, payload: events.EventPayload{"source_id": id}}
	})
}

// LookUpdate replaces the camera overlay, audio mix or color correction.
// Nil fields are unchanged.
type LookUpdate struct {
	CameraOverlay   *domain.CameraOverlay   `json:"camera_overlay,omitempty"`
	AudioMix        *domain.AudioMix        `json:"audio_mix,omitempty"`
	ColorCorrection *domain.ColorCorrection `json:"color_correction,omitempty"`
}

func (s *Session) UpdateLook(ctx context.Context, u LookUpdate) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, func(p domain.Project) (domain.Project, edl.Reason) {
		before := p.EDL
		if u.CameraOverlay != nil {
			p.EDL.CameraOverlay = *u.CameraOverlay
		}
		if u.AudioMix != nil {
			p.EDL.AudioMix = *u.AudioMix
		}
		if u.ColorCorrection != nil {
			p.EDL.ColorCorrection = *u.ColorCorrection
		}
		if p.EDL.CameraOverlay == before.CameraOverlay && p.EDL.AudioMix == before.AudioMix && p.EDL.ColorCorrection == before.ColorCorrection {
			return p, edl.ReasonNoChange
		}
		return p, edl.ReasonNone
	}, func(p domain.Project) record {
		return record{event: events.LookUpdated, kind: "project", entityID: p.ID}
	})
}
