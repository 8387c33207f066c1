package edl

import (
	"math"

	"cutline/internal/domain"
)

// DuplicateOffset is how far a duplicated annotation is shifted, in seconds.
const DuplicateOffset = 1.0

// AnnotationPatch lists the annotation fields to change; nil leaves a field
// as it is.
type AnnotationPatch struct {
	Start     *float64               `json:"start,omitempty"`
	End       *float64               `json:"end,omitempty"`
	Box       *domain.Box            `json:"box,omitempty"`
	Color     *string                `json:"color,omitempty"`
	Opacity   *float64               `json:"opacity,omitempty"`
	Thickness *float64               `json:"thickness,omitempty"`
	Text      *string                `json:"text,omitempty"`
	Mode      *domain.AnnotationMode `json:"mode,omitempty" enum:"outline,blur,text,arrow"`
}

func (p AnnotationPatch) apply(a domain.Annotation) domain.Annotation {
	if p.Start != nil {
		a.Start = *p.Start
	}
	if p.End != nil {
		a.End = *p.End
	}
	if p.Box != nil {
		a.Box = clampBox(*p.Box)
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.Opacity != nil {
		a.Opacity = clamp01(*p.Opacity)
	}
	if p.Thickness != nil {
		a.Thickness = math.Max(0, *p.Thickness)
	}
	if p.Text != nil {
		a.Text = *p.Text
	}
	if p.Mode != nil {
		a.Mode = *p.Mode
	}
	return a
}

// AddAnnotation appends an annotation over [start, end) with default styling.
func AddAnnotation(list []domain.Annotation, start, end float64, mode domain.AnnotationMode, duration float64) Result[[]domain.Annotation] {
	if !mode.Valid() {
		return rejected(list, ReasonInvalidMode)
	}
	start = math.Max(0, start)
	end = math.Min(duration, end)
	if math.IsNaN(start) || math.IsNaN(end) || end <= start {
		return rejected(list, ReasonInvalidRange)
	}
	a := domain.Annotation{
		ID:        domain.NewID(),
		Start:     start,
		End:       end,
		Box:       domain.Box{X: 0.375, Y: 0.375, Width: 0.25, Height: 0.25},
		Color:     "#ff3b30",
		Opacity:   1,
		Thickness: 3,
		Mode:      mode,
	}
	if mode == domain.AnnotationText {
		a.Text = "Text"
	}
	out := make([]domain.Annotation, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, a)
	return applied(out)
}

// UpdateAnnotation applies patch when it changes at least one field.
func UpdateAnnotation(list []domain.Annotation, id string, patch AnnotationPatch) Result[[]domain.Annotation] {
	idx := annotationIndex(list, id)
	if idx < 0 {
		return rejected(list, ReasonNotFound)
	}
	if patch.Mode != nil && !patch.Mode.Valid() {
		return rejected(list, ReasonInvalidMode)
	}
	current := list[idx]
	updated := patch.apply(current)
	if math.IsNaN(updated.Start) || math.IsNaN(updated.End) || updated.End <= updated.Start {
		return rejected(list, ReasonInvalidRange)
	}
	if updated == current {
		return rejected(list, ReasonNoChange)
	}
	out := make([]domain.Annotation, len(list))
	copy(out, list)
	out[idx] = updated
	return applied(out)
}

// DeleteAnnotation removes an annotation.
func DeleteAnnotation(list []domain.Annotation, id string) Result[[]domain.Annotation] {
	idx := annotationIndex(list, id)
	if idx < 0 {
		return rejected(list, ReasonNotFound)
	}
	out := make([]domain.Annotation, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return applied(out)
}

// DuplicateAnnotation clones an annotation shifted by offset, keeping the
// copy inside [0, duration].
func DuplicateAnnotation(list []domain.Annotation, id string, offset, duration float64) Result[[]domain.Annotation] {
	idx := annotationIndex(list, id)
	if idx < 0 {
		return rejected(list, ReasonNotFound)
	}
	src := list[idx]
	length := src.End - src.Start
	start := math.Min(math.Max(0, src.Start+offset), math.Max(0, duration-length))
	end := math.Min(duration, start+length)
	if end <= start {
		return rejected(list, ReasonInvalidRange)
	}
	dup := src
	dup.ID = domain.NewID()
	dup.Start = start
	dup.End = end
	out := make([]domain.Annotation, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, dup)
	return applied(out)
}

// FindAnnotation returns the annotation with the given id.
func FindAnnotation(list []domain.Annotation, id string) (domain.Annotation, bool) {
	idx := annotationIndex(list, id)
	if idx < 0 {
		return domain.Annotation{}, false
	}
	return list[idx], true
}

func annotationIndex(list []domain.Annotation, id string) int {
	for i, a := range list {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func clampBox(b domain.Box) domain.Box {
	return domain.Box{
		X:      clamp01(b.X),
		Y:      clamp01(b.Y),
		Width:  clamp01(b.Width),
		Height: clamp01(b.Height),
	}
}
