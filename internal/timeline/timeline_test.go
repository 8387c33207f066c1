package timeline_test

import (
	"math"
	"testing"

	"cutline/internal/domain"
	"cutline/internal/timeline"
)

func project(duration float64, segs []domain.Segment, speed []domain.SpeedEffect) domain.Project {
	return domain.Project{ID: "p", Duration: duration, EDL: domain.EditDecisionList{Segments: segs, Speed: speed}}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEditedDurationWithSpeedEffect(t *testing.T) {
	p := project(100,
		[]domain.Segment{{ID: "s", Start: 0, End: 100, Enabled: true}},
		[]domain.SpeedEffect{{ID: "x", Start: 10, End: 20, Speed: 2}},
	)
	if got := timeline.EditedDuration(p); !almost(got, 95) {
		t.Fatalf("edited duration = %v, want 95", got)
	}
}

func TestDisabledSegmentsAreCut(t *testing.T) {
	p := project(90, []domain.Segment{
		{ID: "a", Start: 0, End: 30, Enabled: true},
		{ID: "b", Start: 30, End: 60, Enabled: false},
		{ID: "c", Start: 60, End: 90, Enabled: true},
	}, nil)
	if got := timeline.EditedDuration(p); !almost(got, 60) {
		t.Fatalf("edited duration = %v, want 60", got)
	}
	if got := timeline.SourceToEdited(p, 75); !almost(got, 45) {
		t.Fatalf("source 75 -> %v, want 45", got)
	}
	if got := timeline.SourceToEdited(p, 45); !almost(got, 60) {
		t.Fatalf("time in cut gap -> %v, want end of timeline", got)
	}
	if got := timeline.EditedToSource(p, 45); !almost(got, 75) {
		t.Fatalf("edited 45 -> %v, want 75", got)
	}
}

func TestNoEnabledSegmentsFallsBackToSource(t *testing.T) {
	p := project(42, []domain.Segment{{ID: "a", Start: 0, End: 42, Enabled: false}}, nil)
	if got := timeline.EditedDuration(p); got != 42 {
		t.Fatalf("edited duration = %v, want 42", got)
	}
}

func TestSegmentsAreSortedAndClamped(t *testing.T) {
	p := project(50, []domain.Segment{
		{ID: "late", Start: 40, End: 80, Enabled: true},
		{ID: "early", Start: -5, End: 10, Enabled: true},
		{ID: "empty", Start: 60, End: 70, Enabled: true},
	}, nil)
	m := timeline.Build(p)
	if len(m.Spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(m.Spans))
	}
	if m.Spans[0].SegmentID != "early" || m.Spans[0].SourceStart != 0 {
		t.Fatalf("first span = %+v", m.Spans[0])
	}
	if m.Spans[1].SourceEnd != 50 || !almost(m.Spans[1].EditedStart, 10) {
		t.Fatalf("second span = %+v", m.Spans[1])
	}
	if !almost(m.Total, 20) {
		t.Fatalf("total = %v", m.Total)
	}
}

func TestMappingInsideSpeedEffect(t *testing.T) {
	p := project(100,
		[]domain.Segment{{ID: "s", Start: 0, End: 100, Enabled: true}},
		[]domain.SpeedEffect{{ID: "x", Start: 10, End: 20, Speed: 2}},
	)
	tests := []struct {
		source, edited float64
	}{
		{0, 0},
		{10, 10},
		{14, 12},
		{20, 15},
		{30, 25},
		{100, 95},
	}
	for _, tt := range tests {
		if got := timeline.SourceToEdited(p, tt.source); !almost(got, tt.edited) {
			t.Errorf("SourceToEdited(%v) = %v, want %v", tt.source, got, tt.edited)
		}
		if tt.source == 100 {
			continue
		}
		if got := timeline.EditedToSource(p, tt.edited); !almost(got, tt.source) {
			t.Errorf("EditedToSource(%v) = %v, want %v", tt.edited, got, tt.source)
		}
	}
}

func TestSourceOffsetIgnoresSpeed(t *testing.T) {
	m := timeline.Build(project(100,
		[]domain.Segment{
			{ID: "a", Start: 0, End: 100, Enabled: false},
		},
		nil,
	))
	if got := m.SourceOffsetToEdited(30); got != 100 {
		t.Errorf("no enabled segments: got %v, want 100", got)
	}

	m = timeline.Build(project(100,
		[]domain.Segment{{ID: "s", Start: 0, End: 100, Enabled: true}},
		[]domain.SpeedEffect{{ID: "x", Start: 10, End: 20, Speed: 2}},
	))
	if got := m.SourceOffsetToEdited(30); got != 30 {
		t.Errorf("SourceOffsetToEdited(30) = %v, want 30", got)
	}
	if got := m.SourceToEdited(30); !almost(got, 25) {
		t.Errorf("SourceToEdited(30) = %v, want 25", got)
	}

	m = timeline.Build(project(100,
		[]domain.Segment{
			{ID: "a", Start: 0, End: 20, Enabled: true},
			{ID: "b", Start: 20, End: 40, Enabled: false},
			{ID: "c", Start: 40, End: 100, Enabled: true},
		},
		nil,
	))
	tests := []struct {
		source, edited float64
	}{
		{5, 5},
		{30, 80},
		{50, 30},
	}
	for _, tt := range tests {
		if got := m.SourceOffsetToEdited(tt.source); !almost(got, tt.edited) {
			t.Errorf("SourceOffsetToEdited(%v) = %v, want %v", tt.source, got, tt.edited)
		}
	}
}

func TestSpeedAtDefaults(t *testing.T) {
	effects := []domain.SpeedEffect{{Start: 5, End: 10, Speed: 0.5}}
	if got := timeline.SpeedAt(effects, 4); got != 1 {
		t.Fatalf("outside = %v", got)
	}
	if got := timeline.SpeedAt(effects, 5); got != 0.5 {
		t.Fatalf("inside = %v", got)
	}
	if got := timeline.SpeedAt(effects, 10); got != 1 {
		t.Fatalf("end is exclusive, got %v", got)
	}
}

func TestContains(t *testing.T) {
	m := timeline.Build(project(90, []domain.Segment{
		{ID: "a", Start: 0, End: 30, Enabled: true},
		{ID: "c", Start: 60, End: 90, Enabled: true},
	}, nil))
	if !m.Contains(10) || m.Contains(45) || !m.Contains(60) || m.Contains(90) {
		t.Fatalf("unexpected Contains results")
	}
}
