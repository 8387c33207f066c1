package server

import (
	"context"
	"sync"
	"time"

	"cutline/internal/engine"
)

// sessions keeps one live editing session per project so every request on
// a project goes through the same single writer.
type sessions struct {
	ctx    context.Context
	engine engine.Engine
	mu     sync.Mutex
	open   map[string]*openSession
}

type openSession struct {
	sess   *engine.Session
	cancel context.CancelFunc
}

func newSessions(ctx context.Context, e engine.Engine) *sessions {
	if ctx == nil {
		ctx = context.Background()
	}
	return &sessions{ctx: ctx, engine: e, open: map[string]*openSession{}}
}

// get returns the session for projectID, opening it with the project's
// stored config. Unknown projects are reported as not found.
func (s *sessions) get(ctx context.Context, projectID string) (*engine.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.open[projectID]; ok {
		return o.sess, nil
	}
	if _, err := s.engine.Repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	eng := s.engine
	if cfg, err := eng.Repo.GetProjectConfig(ctx, projectID); err == nil {
		eng.Config = cfg
	}
	sess := eng.Open(ctx, projectID, "")
	autosaveCtx, cancel := context.WithCancel(s.ctx)
	if eng.Config != nil {
		go sess.RunAutosave(autosaveCtx, time.Duration(eng.Config.Autosave.IntervalSeconds)*time.Second)
	}
	s.open[projectID] = &openSession{sess: sess, cancel: cancel}
	return sess, nil
}

// drop closes and forgets the session for projectID.
func (s *sessions) drop(ctx context.Context, projectID string) {
	s.mu.Lock()
	o, ok := s.open[projectID]
	delete(s.open, projectID)
	s.mu.Unlock()
	if !ok {
		return
	}
	o.cancel()
	if err := o.sess.Close(ctx); err != nil {
		s.engine.Logf("server: close session %s: %v", projectID, err)
	}
}

// closeAll flushes and forgets every open session.
func (s *sessions) closeAll(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.drop(ctx, id)
	}
}
