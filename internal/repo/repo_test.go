package repo_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cutline/internal/config"
	"cutline/internal/db"
	"cutline/internal/domain"
	"cutline/internal/events"
	"cutline/internal/history"
	"cutline/internal/migrate"
	"cutline/internal/repo"
)

func newRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn}
}

func saveProject(t *testing.T, r repo.Repo, p domain.Project) {
	t.Helper()
	ctx := context.Background()
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	if err := r.SaveProjectTx(ctx, tx, p); err != nil {
		t.Fatalf("save project: %v", err)
	}
	if err := r.UpsertProjectConfig(ctx, tx, p.ID, config.Default(p.ID)); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestProjectRoundTripAndSingle(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	if _, err := r.SingleProject(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("empty workspace: %v", err)
	}
	p := domain.NewProject("p1", "demo", 30, domain.Resolution{Width: 1920, Height: 1080}, "2024-01-01T00:00:00Z")
	p.EDL.Zoom = append(p.EDL.Zoom, domain.ZoomEffect{ID: "z1", Start: 1, End: 3, Scale: 2, X: 0.5, Y: 0.5})
	saveProject(t, r, p)

	got, err := r.SingleProject(ctx)
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	if got.Name != "demo" || len(got.EDL.Zoom) != 1 || got.EDL.Zoom[0].Scale != 2 {
		t.Fatalf("project = %+v", got)
	}
	cfg, err := r.GetProjectConfig(ctx, "p1")
	if err != nil || cfg.Editor.HistoryLimit != 50 {
		t.Fatalf("config = %+v err=%v", cfg, err)
	}

	saveProject(t, r, domain.NewProject("p2", "other", 10, domain.Resolution{}, "2024-01-02T00:00:00Z"))
	if _, err := r.SingleProject(ctx); err == nil || !strings.Contains(err.Error(), "multiple") {
		t.Fatalf("expected multiple projects error, got %v", err)
	}
	list, err := r.ListProjects(ctx)
	if err != nil || len(list) != 2 || list[0].ID != "p2" {
		t.Fatalf("list = %+v err=%v", list, err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := domain.NewProject("p1", "demo", 30, domain.Resolution{}, "2024-01-01T00:00:00Z")
	saveProject(t, r, p)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SaveHistoryTx(ctx, tx, "p1", history.State{Past: []domain.Project{p}}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	st, err := r.LoadHistory(ctx, "p1")
	if err != nil || len(st.Past) != 1 || len(st.Future) != 0 {
		t.Fatalf("history = %+v err=%v", st, err)
	}

	tx, err = r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteProjectTx(ctx, tx, "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.DeleteProjectTx(ctx, tx, "p1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetProject(ctx, "p1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("get deleted: %v", err)
	}
	if _, err := r.GetProjectConfig(ctx, "p1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("config should cascade: %v", err)
	}
	st, err = r.LoadHistory(ctx, "p1")
	if err != nil || len(st.Past) != 0 {
		t.Fatalf("history should cascade: %+v err=%v", st, err)
	}
}

func TestEventQueries(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	w := events.Writer{DB: r.DB}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	appendEvt := func(typ, project, id string) {
		if err := w.Append(ctx, tx, typ, project, "zoom", id, "tester", events.EventPayload{"id": id}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	appendEvt(events.ZoomAdded, "p1", "z1")
	appendEvt(events.ZoomUpdated, "p1", "z1")
	appendEvt(events.ZoomAdded, "p2", "z2")
	appendEvt(events.HistoryUndo, "p1", "")
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	latest, err := r.LatestEvents(ctx, 10, repo.EventFilter{ProjectID: "p1"})
	if err != nil || len(latest) != 3 || latest[0].Type != events.HistoryUndo {
		t.Fatalf("latest = %+v err=%v", latest, err)
	}
	if latest[0].EntityID != "" || latest[1].Payload != `{"id":"z1"}` {
		t.Fatalf("scan = %+v", latest[:2])
	}
	byType, err := r.LatestEvents(ctx, 10, repo.EventFilter{Type: events.ZoomAdded})
	if err != nil || len(byType) != 2 {
		t.Fatalf("by type = %+v err=%v", byType, err)
	}
	older, err := r.LatestEventsFrom(ctx, 10, latest[0].ID, repo.EventFilter{ProjectID: "p1"})
	if err != nil || len(older) != 2 {
		t.Fatalf("older = %+v err=%v", older, err)
	}
	after, err := r.EventsAfter(ctx, 10, latest[2].ID, "")
	if err != nil || len(after) != 3 || after[0].ID >= after[1].ID {
		t.Fatalf("after = %+v err=%v", after, err)
	}
	maxID, err := r.LatestEventID(ctx, "p2")
	if err != nil || maxID != after[1].ID {
		t.Fatalf("latest id p2 = %d err=%v", maxID, err)
	}
}

func TestAPIKeys(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	if _, _, err := r.CreateAPIKey(ctx, " ", "x"); err == nil {
		t.Fatalf("expected actor required")
	}
	raw, key, err := r.CreateAPIKey(ctx, "alice", "laptop")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(raw, "cl_") || key.KeyHash != repo.HashAPIKey(raw) || strings.Contains(key.KeyHash, raw) {
		t.Fatalf("raw=%s key=%+v", raw, key)
	}
	got, err := r.LookupAPIKey(ctx, raw)
	if err != nil || got.ActorID != "alice" || got.Name != "laptop" {
		t.Fatalf("lookup = %+v err=%v", got, err)
	}
	if _, err := r.LookupAPIKey(ctx, raw+"x"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("lookup wrong key: %v", err)
	}
	keys, err := r.ListAPIKeys(ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("list = %+v err=%v", keys, err)
	}
	if err := r.DeleteAPIKey(ctx, key.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.DeleteAPIKey(ctx, key.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
