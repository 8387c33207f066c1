package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"cutline/internal/config"
	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/events"
	"cutline/internal/history"
	"cutline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
	Logger *log.Logger
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Logf writes to the engine logger, or the standard logger when unset.
func (e Engine) Logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (e Engine) editor() config.EditorConfig {
	if e.Config != nil {
		return e.Config.Editor
	}
	return config.Default("").Editor
}

type actorKey struct{}

// WithActor tags ctx with the actor recorded on events.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

func actorFrom(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	if fallback == "" {
		return "local-user"
	}
	return fallback
}

// ProjectCreateOptions are parameters for creating a project.
type ProjectCreateOptions struct {
	ID       string
	Name     string
	Duration float64
	Width    int
	Height   int
	Sources  domain.Sources
	ActorID  string
}

// CreateProject stores a fresh project with one full-length segment, its
// config and an empty history.
func (e Engine) CreateProject(ctx context.Context, opts ProjectCreateOptions) (domain.Project, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" && opts.ID == "" {
		return domain.Project{}, errors.New("name is required")
	}
	if opts.Duration <= 0 {
		return domain.Project{}, errors.New("duration must be positive")
	}
	now := e.now().UTC().Format(time.RFC3339)
	id := opts.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(opts.Name+"|"+now)).String()
	}
	if opts.Name == "" {
		opts.Name = id
	}
	if _, err := e.Repo.GetProject(ctx, id); err == nil {
		return domain.Project{}, fmt.Errorf("project %s already exists", id)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Project{}, err
	}
	p := domain.NewProject(id, opts.Name, opts.Duration, domain.Resolution{Width: opts.Width, Height: opts.Height}, now)
	p.Sources = opts.Sources

	cfg := config.Default(id)
	if e.Config != nil {
		cfg.Editor = e.Config.Editor
		cfg.Autosave = e.Config.Autosave
		cfg.Webhooks = e.Config.Webhooks
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.SaveProjectTx(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Repo.UpsertProjectConfig(ctx, tx, id, cfg); err != nil {
		return domain.Project{}, fmt.Errorf("insert project config: %w", err)
	}
	if err := e.Repo.SaveHistoryTx(ctx, tx, id, history.State{}); err != nil {
		return domain.Project{}, fmt.Errorf("insert project history: %w", err)
	}
	payload := events.EventPayload{"name": p.Name, "duration": p.Duration}
	if err := e.Events.Append(ctx, tx, events.ProjectCreated, id, "project", id, actorFrom(ctx, opts.ActorID), payload); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// DeleteProject removes a project together with its config and history.
func (e Engine) DeleteProject(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteProjectTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.ProjectDeleted, id, "project", id, actorFrom(ctx, actorID), nil); err != nil {
		return err
	}
	return tx.Commit()
}

// SetProjectConfig validates and stores cfg for a project.
func (e Engine) SetProjectConfig(ctx context.Context, projectID string, cfg *config.Config, actorID string) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	cfg.Project.ID = projectID
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.UpsertProjectConfig(ctx, tx, projectID, cfg); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.ProjectConfigSet, projectID, "project", projectID, actorFrom(ctx, actorID), nil); err != nil {
		return err
	}
	return tx.Commit()
}

// Open starts an editing session on a project. A project that cannot be
// loaded is replaced by an empty one so editing can continue; the
// replacement is persisted on the first change.
func (e Engine) Open(ctx context.Context, projectID, actorID string) *Session {
	ed := e.editor()
	s := &Session{
		eng:     e,
		actorID: actorID,
		editor:  ed,
		zoom:    edl.NewTrack[domain.ZoomEffect](ed.MinEffectDuration),
		speed:   edl.NewTrack[domain.SpeedEffect](ed.MinEffectDuration),
	}
	p, err := e.Repo.GetProject(ctx, projectID)
	if err != nil {
		e.Logf("engine: load project %s failed, starting empty: %v", projectID, err)
		p = domain.NewProject(projectID, projectID, 0, domain.Resolution{}, e.now().UTC().Format(time.RFC3339))
		s.fallback = true
	}
	if err := s.zoom.Check(p.EDL.Zoom); err != nil {
		e.Logf("engine: project %s zoom track: %v", projectID, err)
	}
	if err := s.speed.Check(p.EDL.Speed); err != nil {
		e.Logf("engine: project %s speed track: %v", projectID, err)
	}
	s.hist = history.New(p, ed.HistoryLimit)
	if !s.fallback {
		st, err := e.Repo.LoadHistory(ctx, projectID)
		if err != nil {
			e.Logf("engine: load history for %s failed: %v", projectID, err)
		} else {
			s.hist.Restore(p, st)
		}
	}
	s.player = newPlayer(ed)
	return s
}
