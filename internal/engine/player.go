package engine

import (
	"context"
	"math"

	"cutline/internal/config"
	"cutline/internal/playback"
	"cutline/internal/timeline"
)

// PlayerState is a snapshot of the play cursor.
type PlayerState struct {
	Cursor     float64 `json:"cursor"`
	EditedTime float64 `json:"edited_time"`
	Playing    bool    `json:"playing"`
	Shuttle    float64 `json:"shuttle"`
	Rate       float64 `json:"rate"`
}

func newPlayer(ed config.EditorConfig) *playback.Player {
	return playback.NewPlayer(ed.MaxPlaybackRate)
}

func (s *Session) playerStateLocked() PlayerState {
	view := s.viewLocked()
	return PlayerState{
		Cursor:     s.player.Cursor,
		EditedTime: timeline.Build(view).SourceToEdited(s.player.Cursor),
		Playing:    s.player.Playing,
		Shuttle:    s.player.Shuttle(),
		Rate:       s.player.Rate(playback.EffectiveSpeed(view, s.player.Cursor, s.draft.Speed)),
	}
}

func (s *Session) PlayerState() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerStateLocked()
}

// Play starts playback at 1x. A cursor parked in a cut jumps to the next
// enabled segment straight away.
func (s *Session) Play() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Play()
	s.player.CheckSegments(s.hist.Current())
	return s.playerStateLocked()
}

func (s *Session) Pause() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Pause()
	return s.playerStateLocked()
}

func (s *Session) FastForward() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.FastForward()
	return s.playerStateLocked()
}

// ReverseSkip moves the cursor back by seconds, or the configured default
// when seconds is not positive.
func (s *Session) ReverseSkip(seconds float64) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds <= 0 {
		seconds = s.editor.ReverseSkipSeconds
	}
	s.player.ReverseSkip(seconds)
	return s.playerStateLocked()
}

func (s *Session) Seek(t float64) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Seek(t, s.hist.Current().Duration)
	return s.playerStateLocked()
}

// SeekEdited places the cursor at edited time t.
func (s *Session) SeekEdited(t float64) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.hist.Current()
	s.player.Seek(timeline.Build(p).EditedToSource(t), p.Duration)
	return s.playerStateLocked()
}

// Tick advances a playing cursor by dt seconds of wall time, then skips any
// cut it landed in.
func (s *Session) Tick(dt float64) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.hist.Current()
	s.player.Advance(p, dt, s.draft.Speed)
	s.player.CheckSegments(p)
	return s.playerStateLocked()
}

// RunPlayback drives the cursor in real time and runs the segment skip
// check at the configured interval until ctx is done.
func (s *Session) RunPlayback(ctx context.Context) {
	interval := s.editor.SkipInterval()
	last := s.eng.now()
	playback.RunSkipChecker(ctx, interval, func() {
		now := s.eng.now()
		dt := now.Sub(last).Seconds()
		last = now
		s.Tick(dt)
	})
}

func (s *Session) clampCursor() {
	s.player.Cursor = math.Min(math.Max(0, s.player.Cursor), s.hist.Current().Duration)
}
