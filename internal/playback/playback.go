// Package playback drives a source-time play cursor over a project: active
// effect lookup, rate composition, shuttle speeds and skipping over cuts.
package playback

import (
	"context"
	"math"
	"time"

	"cutline/internal/domain"
	"cutline/internal/timeline"
)

const (
	// MaxRate caps the effective playback rate.
	MaxRate = 8.0
	// DefaultSkipInterval is how often the cursor is checked against the
	// enabled segments while playing.
	DefaultSkipInterval = 100 * time.Millisecond
)

var shuttleSteps = []float64{1, 2, 4}

type bounded interface {
	Bounds() (float64, float64)
}

// ActiveEffect returns the first effect whose [start, end) contains t.
func ActiveEffect[T bounded](items []T, t float64) (T, bool) {
	for _, it := range items {
		s, e := it.Bounds()
		if t >= s && t < e {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// EffectiveSpeed is the speed in effect at t. A draft of a speed effect
// overrides the committed value while it covers t.
func EffectiveSpeed(p domain.Project, t float64, draft *domain.SpeedEffect) float64 {
	if draft != nil && t >= draft.Start && t < draft.End && draft.Speed > 0 {
		return draft.Speed
	}
	if e, ok := ActiveEffect(p.EDL.Speed, t); ok && e.Speed > 0 {
		return e.Speed
	}
	return 1
}

// Player holds the play cursor. It is not safe for concurrent use; the
// owning session serializes access.
type Player struct {
	Cursor  float64
	Playing bool
	MaxRate float64
	shuttle int
}

func NewPlayer(maxRate float64) *Player {
	if maxRate <= 0 {
		maxRate = MaxRate
	}
	return &Player{MaxRate: maxRate}
}

// Shuttle returns the current shuttle multiplier.
func (p *Player) Shuttle() float64 {
	return shuttleSteps[p.shuttle]
}

func (p *Player) Play() {
	p.Playing = true
	p.shuttle = 0
}

func (p *Player) Pause() {
	p.Playing = false
}

// FastForward advances the shuttle through 1x, 2x, 4x and back to 1x.
func (p *Player) FastForward() {
	p.shuttle = (p.shuttle + 1) % len(shuttleSteps)
}

// ReverseSkip moves the cursor back by seconds and resets the shuttle.
func (p *Player) ReverseSkip(seconds float64) {
	p.shuttle = 0
	p.Cursor = math.Max(0, p.Cursor-seconds)
}

// Seek places the cursor at t, clamped to [0, duration].
func (p *Player) Seek(t, duration float64) {
	p.Cursor = math.Min(math.Max(0, t), duration)
}

// Rate composes the active effect speed with the shuttle, capped at MaxRate.
func (p *Player) Rate(speed float64) float64 {
	if speed <= 0 {
		speed = 1
	}
	return math.Min(speed*p.Shuttle(), p.MaxRate)
}

// Advance moves a playing cursor forward by dt seconds of wall time and
// stops at the end of the source.
func (p *Player) Advance(proj domain.Project, dt float64, draft *domain.SpeedEffect) {
	if !p.Playing || dt <= 0 {
		return
	}
	rate := p.Rate(EffectiveSpeed(proj, p.Cursor, draft))
	p.Cursor += dt * rate
	if p.Cursor >= proj.Duration {
		p.Cursor = proj.Duration
		p.Playing = false
	}
}

// CheckSegments jumps a cursor sitting outside every enabled segment to the
// next enabled segment, or stops playback when none is left. It reports
// whether the cursor or the playing state changed.
func (p *Player) CheckSegments(proj domain.Project) bool {
	if !p.Playing {
		return false
	}
	next := math.Inf(1)
	for _, s := range proj.EDL.Segments {
		if !s.Enabled {
			continue
		}
		if p.Cursor >= s.Start && p.Cursor < s.End {
			return false
		}
		if s.Start > p.Cursor && s.Start < next {
			next = s.Start
		}
	}
	if math.IsInf(next, 1) {
		p.Playing = false
		return true
	}
	p.Cursor = next
	return true
}

// RunSkipChecker calls check on every tick until ctx is done.
func RunSkipChecker(ctx context.Context, interval time.Duration, check func()) {
	if interval <= 0 {
		interval = DefaultSkipInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// Sample is everything an exporter needs to render one source instant.
type Sample struct {
	Time            float64                `json:"time"`
	EditedTime      float64                `json:"edited_time"`
	Kept            bool                   `json:"kept"`
	Speed           float64                `json:"speed"`
	Zoom            *domain.ZoomEffect     `json:"zoom,omitempty"`
	SpeedEffect     *domain.SpeedEffect    `json:"speed_effect,omitempty"`
	Annotations     []domain.Annotation    `json:"annotations"`
	CameraOverlay   domain.CameraOverlay   `json:"camera_overlay"`
	AudioMix        domain.AudioMix        `json:"audio_mix"`
	ColorCorrection domain.ColorCorrection `json:"color_correction"`
}

// SampleAt resolves the effect state of p at source time t.
func SampleAt(p domain.Project, t float64) Sample {
	m := timeline.Build(p)
	s := Sample{
		Time:            t,
		EditedTime:      m.SourceToEdited(t),
		Kept:            m.Contains(t),
		Speed:           EffectiveSpeed(p, t, nil),
		Annotations:     []domain.Annotation{},
		CameraOverlay:   p.EDL.CameraOverlay,
		AudioMix:        p.EDL.AudioMix,
		ColorCorrection: p.EDL.ColorCorrection,
	}
	if z, ok := ActiveEffect(p.EDL.Zoom, t); ok {
		s.Zoom = &z
	}
	if sp, ok := ActiveEffect(p.EDL.Speed, t); ok {
		s.SpeedEffect = &sp
	}
	for _, a := range p.EDL.Annotations {
		if t >= a.Start && t < a.End {
			s.Annotations = append(s.Annotations, a)
		}
	}
	return s
}
