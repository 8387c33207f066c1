package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"cutline/internal/config"
	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/events"
	"cutline/internal/history"
	"cutline/internal/playback"
	"cutline/internal/timeline"
)

// ErrNoDraft is returned when committing a track that has no pending draft.
var ErrNoDraft = errors.New("no draft pending")

// Outcome reports what a session command did. Rejected edits are not errors.
type Outcome struct {
	Applied bool       `json:"applied"`
	Reason  edl.Reason `json:"reason,omitempty"`
	ID      string     `json:"id,omitempty"`
	CanUndo bool       `json:"can_undo"`
	CanRedo bool       `json:"can_redo"`
}

// Session is the single writer for one project. Edit commands, drafts and
// playback all serialize on mu.
type Session struct {
	mu       sync.Mutex
	eng      Engine
	actorID  string
	editor   config.EditorConfig
	hist     *history.Manager
	zoom     edl.Track[domain.ZoomEffect]
	speed    edl.Track[domain.SpeedEffect]
	draft    Draft
	player   *playback.Player
	dirty    bool
	fallback bool
}

// Fallback reports whether the session started from an empty project
// because the stored one could not be loaded.
func (s *Session) Fallback() bool {
	return s.fallback
}

// Project returns the committed project.
func (s *Session) Project() domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Current()
}

// View returns the committed project with any pending drafts laid over it.
func (s *Session) View() domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// EditedDuration is the length of the edited timeline of the committed project.
func (s *Session) EditedDuration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return timeline.EditedDuration(s.hist.Current())
}

// Timeline lays out the committed project on the edited timeline.
func (s *Session) Timeline() timeline.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return timeline.Build(s.hist.Current())
}

// Sample resolves the view at source time t, drafts included.
func (s *Session) Sample(t float64) playback.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return playback.SampleAt(s.viewLocked(), t)
}

// HistoryDepth returns the sizes of the undo and redo stacks.
func (s *Session) HistoryDepth() (past, future int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Depth()
}

func (s *Session) outcome(applied bool, reason edl.Reason, id string) Outcome {
	return Outcome{
		Applied: applied,
		Reason:  reason,
		ID:      id,
		CanUndo: s.hist.CanUndo(),
		CanRedo: s.hist.CanRedo(),
	}
}

// edit runs fn through history. fn returns the new project, or a reason
// when the edit was rejected.
type edit func(p domain.Project) (domain.Project, edl.Reason)

// record is the event logged for an applied edit.
type record struct {
	event    string
	kind     string
	entityID string
	payload  events.EventPayload
}

func (s *Session) commit(ctx context.Context, fn edit, rec func(p domain.Project) record) (Outcome, error) {
	reason := edl.ReasonNone
	var next domain.Project
	s.hist.Commit(func(p domain.Project) (domain.Project, bool) {
		n, r := fn(p)
		reason = r
		next = n
		return n, r == edl.ReasonNone
	})
	if reason != edl.ReasonNone {
		return s.outcome(false, reason, ""), nil
	}
	r := rec(next)
	if err := s.persist(ctx, r); err != nil {
		return s.outcome(true, edl.ReasonNone, r.entityID), err
	}
	return s.outcome(true, edl.ReasonNone, r.entityID), nil
}

// persist writes the project, both history stacks and ev in one
// transaction. On failure the session stays dirty so Flush can retry.
func (s *Session) persist(ctx context.Context, ev record) error {
	s.dirty = true
	p := s.hist.Current()
	tx, err := s.eng.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	defer tx.Rollback()
	if err := s.eng.Repo.SaveProjectTx(ctx, tx, p); err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	if err := s.eng.Repo.SaveHistoryTx(ctx, tx, p.ID, s.hist.State()); err != nil {
		return fmt.Errorf("save history %s: %w", p.ID, err)
	}
	if ev.event != "" {
		if err := s.eng.Events.Append(ctx, tx, ev.event, p.ID, ev.kind, ev.entityID, actorFrom(ctx, s.actorID), ev.payload); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether the last save failed and changes are unsaved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush retries a failed save.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persist(ctx, record{})
}

// RunAutosave flushes unsaved changes every interval until ctx is done.
func (s *Session) RunAutosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.eng.Logf("engine: autosave failed: %v", err)
			}
		}
	}
}

// Close stops playback and flushes unsaved changes.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.player.Pause()
	s.mu.Unlock()
	return s.Flush(ctx)
}

func (s *Session) Undo(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.Undo() {
		return s.outcome(false, edl.ReasonNoChange, ""), nil
	}
	s.clampCursor()
	err := s.persist(ctx, record{event: events.HistoryUndo, kind: "project", entityID: s.hist.Current().ID})
	return s.outcome(true, edl.ReasonNone, ""), err
}

func (s *Session) Redo(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hist.Redo() {
		return s.outcome(false, edl.ReasonNoChange, ""), nil
	}
	s.clampCursor()
	err := s.persist(ctx, record{event: events.HistoryRedo, kind: "project", entityID: s.hist.Current().ID})
	return s.outcome(true, edl.ReasonNone, ""), err
}

// ReconcileDuration adopts the measured media duration without recording
// an undo step. Segments are clipped to the new length and a segment that
// ended at the old length is stretched to the new one. Effects and
// annotations are clipped too; those left too short are dropped.
func (s *Session) ReconcileDuration(ctx context.Context, duration float64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return s.outcome(false, edl.ReasonInvalidRange, ""), nil
	}
	changed := s.hist.Patch(func(p domain.Project) (domain.Project, bool) {
		return reconcile(p, duration, s.zoom.MinDuration)
	})
	if !changed {
		return s.outcome(false, edl.ReasonNoChange, ""), nil
	}
	s.clampCursor()
	p := s.hist.Current()
	err := s.persist(ctx, record{
		event:    events.ProjectReconciled,
		kind:     "project",
		entityID: p.ID,
		payload:  events.EventPayload{"duration": duration},
	})
	return s.outcome(true, edl.ReasonNone, p.ID), err
}

func reconcile(p domain.Project, duration, minEffect float64) (domain.Project, bool) {
	if p.Duration == duration {
		return p, false
	}
	old := p.Duration
	segs := make([]domain.Segment, 0, len(p.EDL.Segments))
	for _, seg := range p.EDL.Segments {
		if seg.End >= old || seg.End > duration {
			seg.End = duration
		}
		if seg.End-seg.Start <= 0 {
			continue
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		segs = []domain.Segment{{ID: domain.NewID(), Start: 0, End: duration, Enabled: true}}
	}
	p.Duration = duration
	p.EDL.Segments = segs
	p.EDL.Zoom = clipTrack(p.EDL.Zoom, duration, minEffect)
	p.EDL.Speed = clipTrack(p.EDL.Speed, duration, minEffect)
	anns := make([]domain.Annotation, 0, len(p.EDL.Annotations))
	for _, a := range p.EDL.Annotations {
		a.End = math.Min(a.End, duration)
		if a.End <= a.Start {
			continue
		}
		anns = append(anns, a)
	}
	p.EDL.Annotations = anns
	return p, true
}

func clipTrack[T edl.Span[T]](items []T, duration, minLength float64) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		start, end := it.Bounds()
		end = math.Min(end, duration)
		if end-start < minLength {
			continue
		}
		out = append(out, it.WithBounds(start, end))
	}
	return out
}

func clampRange(start, end, duration float64) (float64, float64) {
	return math.Max(0, start), math.Min(duration, end)
}
