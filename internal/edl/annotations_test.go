package edl_test

import (
	"math"
	"testing"

	"cutline/internal/domain"
	"cutline/internal/edl"
)

func TestAddAnnotationAllowsOverlap(t *testing.T) {
	var list []domain.Annotation
	list = edl.AddAnnotation(list, 5, 10, domain.AnnotationOutline, 60).Value
	res := edl.AddAnnotation(list, 6, 9, domain.AnnotationBlur, 60)
	if !res.Applied || len(res.Value) != 2 {
		t.Fatalf("expected overlapping annotation to be added: %+v", res)
	}
	if res.Value[0].ID == res.Value[1].ID {
		t.Fatalf("ids not unique")
	}
}

func TestAddAnnotationValidation(t *testing.T) {
	if res := edl.AddAnnotation(nil, 5, 10, domain.AnnotationMode("circle"), 60); res.Reason != edl.ReasonInvalidMode {
		t.Fatalf("mode: %q", res.Reason)
	}
	if res := edl.AddAnnotation(nil, 70, 80, domain.AnnotationText, 60); res.Reason != edl.ReasonInvalidRange {
		t.Fatalf("range: %q", res.Reason)
	}
	res := edl.AddAnnotation(nil, 55, 80, domain.AnnotationText, 60)
	if !res.Applied || res.Value[0].End != 60 || res.Value[0].Text == "" {
		t.Fatalf("clamped text annotation: %+v", res.Value)
	}
}

func TestUpdateAnnotationOnlyWhenChanged(t *testing.T) {
	list := edl.AddAnnotation(nil, 5, 10, domain.AnnotationOutline, 60).Value
	id := list[0].ID

	same := list[0].Color
	if res := edl.UpdateAnnotation(list, id, edl.AnnotationPatch{Color: &same}); res.Applied || res.Reason != edl.ReasonNoChange {
		t.Fatalf("expected no_change, got %v %q", res.Applied, res.Reason)
	}

	color := "#00ff00"
	text := "look here"
	res := edl.UpdateAnnotation(list, id, edl.AnnotationPatch{Color: &color, Text: &text})
	if !res.Applied {
		t.Fatalf("update: %q", res.Reason)
	}
	if got := res.Value[0]; got.Color != color || got.Text != text {
		t.Fatalf("update = %+v", got)
	}
	if list[0].Color == color {
		t.Fatalf("input mutated")
	}

	if res := edl.UpdateAnnotation(list, "missing", edl.AnnotationPatch{Color: &color}); res.Reason != edl.ReasonNotFound {
		t.Fatalf("unknown id: %q", res.Reason)
	}
}

func TestUpdateAnnotationRejectsNaN(t *testing.T) {
	list := edl.AddAnnotation(nil, 5, 10, domain.AnnotationOutline, 60).Value
	id := list[0].ID
	nan := math.NaN()
	for name, patch := range map[string]edl.AnnotationPatch{
		"start": {Start: &nan},
		"end":   {End: &nan},
		"both":  {Start: &nan, End: &nan},
	} {
		res := edl.UpdateAnnotation(list, id, patch)
		if res.Applied || res.Reason != edl.ReasonInvalidRange {
			t.Errorf("%s: applied=%v reason=%q", name, res.Applied, res.Reason)
		}
		if got := res.Value[0]; got.Start != 5 || got.End != 10 {
			t.Errorf("%s: annotation changed to [%v,%v)", name, got.Start, got.End)
		}
	}
}

func TestDuplicateAnnotationClamps(t *testing.T) {
	tests := []struct {
		name            string
		start, end      float64
		wantStart, wEnd float64
	}{
		{"shifted", 5, 10, 6, 11},
		{"at end of source", 55, 60, 55, 60},
		{"near end", 54.5, 59.5, 55, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := []domain.Annotation{{ID: "a", Start: tt.start, End: tt.end, Mode: domain.AnnotationArrow}}
			res := edl.DuplicateAnnotation(list, "a", edl.DuplicateOffset, 60)
			if !res.Applied || len(res.Value) != 2 {
				t.Fatalf("duplicate: %+v", res)
			}
			dup := res.Value[1]
			if dup.ID == "a" || dup.Start != tt.wantStart || dup.End != tt.wEnd {
				t.Fatalf("dup = %+v, want [%v,%v)", dup, tt.wantStart, tt.wEnd)
			}
		})
	}
}

func TestDeleteAnnotation(t *testing.T) {
	list := []domain.Annotation{{ID: "a", Start: 0, End: 1}}
	if res := edl.DeleteAnnotation(list, "b"); res.Applied || res.Reason != edl.ReasonNotFound {
		t.Fatalf("delete unknown: %+v", res)
	}
	if res := edl.DeleteAnnotation(list, "a"); !res.Applied || len(res.Value) != 0 {
		t.Fatalf("delete: %+v", res)
	}
}
