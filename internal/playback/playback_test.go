package playback

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cutline/internal/domain"
)

func testProject() domain.Project {
	return domain.Project{
		ID:       "p",
		Duration: 90,
		EDL: domain.EditDecisionList{
			Segments: []domain.Segment{
				{ID: "a", Start: 0, End: 30, Enabled: true},
				{ID: "b", Start: 30, End: 60, Enabled: false},
				{ID: "c", Start: 60, End: 90, Enabled: true},
			},
			Zoom:  []domain.ZoomEffect{{ID: "z", Start: 5, End: 10, Scale: 2}},
			Speed: []domain.SpeedEffect{{ID: "s", Start: 10, End: 20, Speed: 3}},
			Annotations: []domain.Annotation{
				{ID: "n1", Start: 0, End: 8},
				{ID: "n2", Start: 6, End: 12},
			},
		},
	}
}

func TestActiveEffect(t *testing.T) {
	p := testProject()
	if z, ok := ActiveEffect(p.EDL.Zoom, 5); !ok || z.ID != "z" {
		t.Fatalf("expected zoom at start boundary")
	}
	if _, ok := ActiveEffect(p.EDL.Zoom, 10); ok {
		t.Fatalf("end boundary is exclusive")
	}
}

func TestRateComposition(t *testing.T) {
	p := testProject()
	pl := NewPlayer(0)
	if got := pl.Rate(EffectiveSpeed(p, 15, nil)); got != 3 {
		t.Fatalf("rate = %v, want 3", got)
	}
	pl.FastForward()
	if got := pl.Rate(EffectiveSpeed(p, 15, nil)); got != 6 {
		t.Fatalf("rate at 2x = %v, want 6", got)
	}
	pl.FastForward()
	if got := pl.Rate(EffectiveSpeed(p, 15, nil)); got != MaxRate {
		t.Fatalf("rate at 4x = %v, want capped %v", got, MaxRate)
	}
	draft := &domain.SpeedEffect{ID: "s", Start: 10, End: 20, Speed: 1.5}
	if got := pl.Rate(EffectiveSpeed(p, 15, draft)); got != 6 {
		t.Fatalf("draft rate = %v, want 6", got)
	}
	pl.FastForward()
	if pl.Shuttle() != 1 {
		t.Fatalf("shuttle should wrap to 1x, got %v", pl.Shuttle())
	}
}

func TestPlayAndReverseSkipResetShuttle(t *testing.T) {
	pl := NewPlayer(0)
	pl.FastForward()
	pl.Play()
	if pl.Shuttle() != 1 {
		t.Fatalf("play should reset shuttle")
	}
	pl.FastForward()
	pl.Cursor = 3
	pl.ReverseSkip(5)
	if pl.Shuttle() != 1 || pl.Cursor != 0 {
		t.Fatalf("reverse skip: shuttle=%v cursor=%v", pl.Shuttle(), pl.Cursor)
	}
}

func TestCheckSegmentsSkipsCuts(t *testing.T) {
	p := testProject()
	pl := NewPlayer(0)
	pl.Play()
	pl.Cursor = 35
	if !pl.CheckSegments(p) || pl.Cursor != 60 || !pl.Playing {
		t.Fatalf("expected jump to 60, cursor=%v playing=%v", pl.Cursor, pl.Playing)
	}
	if pl.CheckSegments(p) {
		t.Fatalf("cursor inside enabled segment should not move")
	}
	pl.Cursor = 90
	if !pl.CheckSegments(p) || pl.Playing {
		t.Fatalf("expected stop after last segment")
	}
}

func TestAdvanceStopsAtEnd(t *testing.T) {
	p := testProject()
	pl := NewPlayer(0)
	pl.Play()
	pl.Seek(12, p.Duration)
	pl.Advance(p, 1, nil)
	if pl.Cursor != 15 {
		t.Fatalf("cursor = %v, want 15", pl.Cursor)
	}
	pl.Seek(89, p.Duration)
	pl.Advance(p, 5, nil)
	if pl.Cursor != 90 || pl.Playing {
		t.Fatalf("cursor = %v playing = %v", pl.Cursor, pl.Playing)
	}
}

func TestSampleAt(t *testing.T) {
	p := testProject()
	s := SampleAt(p, 7)
	if s.Zoom == nil || s.Zoom.ID != "z" {
		t.Fatalf("zoom = %+v", s.Zoom)
	}
	if s.SpeedEffect != nil || s.Speed != 1 {
		t.Fatalf("speed = %v %+v", s.Speed, s.SpeedEffect)
	}
	if len(s.Annotations) != 2 || !s.Kept || s.EditedTime != 7 {
		t.Fatalf("sample = %+v", s)
	}
	if cut := SampleAt(p, 45); cut.Kept {
		t.Fatalf("time in disabled segment should not be kept")
	}
}

func TestRunSkipChecker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		RunSkipChecker(ctx, 5*time.Millisecond, func() {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("skip checker did not stop")
	}
	if calls.Load() < 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
}
