package domain

import "testing"

func TestNewProjectSpansSource(t *testing.T) {
	p := NewProject("p1", "demo", 42, Resolution{Width: 1280, Height: 720}, "2024-01-01T00:00:00Z")
	if len(p.EDL.Segments) != 1 {
		t.Fatalf("segments = %+v", p.EDL.Segments)
	}
	seg := p.EDL.Segments[0]
	if seg.Start != 0 || seg.End != 42 || !seg.Enabled || seg.ID == "" {
		t.Fatalf("segment = %+v", seg)
	}
	if p.EDL.Zoom == nil || p.EDL.Speed == nil || p.EDL.Annotations == nil {
		t.Fatalf("tracks must be empty, not nil")
	}
	if p.EDL.AudioMix.MicrophoneGain != 1 || p.EDL.ColorCorrection.Contrast != 1 {
		t.Fatalf("neutral look expected: %+v %+v", p.EDL.AudioMix, p.EDL.ColorCorrection)
	}
}

func TestNewProjectClampsNegativeDuration(t *testing.T) {
	p := NewProject("p1", "demo", -3, Resolution{}, "")
	if p.Duration != 0 || p.EDL.Segments[0].End != 0 {
		t.Fatalf("duration = %v segment = %+v", p.Duration, p.EDL.Segments[0])
	}
}

func TestAnnotationModeValid(t *testing.T) {
	for _, m := range []AnnotationMode{AnnotationOutline, AnnotationBlur, AnnotationText, AnnotationArrow} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if AnnotationMode("circle").Valid() {
		t.Errorf("circle should be invalid")
	}
}

func TestEffectBounds(t *testing.T) {
	z := ZoomEffect{ID: "z", Start: 1, End: 2, Scale: 2}.WithBounds(3, 5)
	if s, e := z.Bounds(); s != 3 || e != 5 || z.Scale != 2 || z.EffectID() != "z" {
		t.Fatalf("zoom = %+v", z)
	}
	sp := SpeedEffect{ID: "s", Start: 1, End: 2, Speed: 4}.WithBounds(0, 1)
	if s, e := sp.Bounds(); s != 0 || e != 1 || sp.Speed != 4 {
		t.Fatalf("speed = %+v", sp)
	}
}
