package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cutline/internal/config"
	"cutline/internal/db"
	"cutline/internal/domain"
	"cutline/internal/edl"
	"cutline/internal/engine"
	"cutline/internal/migrate"
	"cutline/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default("proj-1"))
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	if _, err := eng.CreateProject(ctx, engine.ProjectCreateOptions{ID: "proj-1", Name: "demo", Duration: 100, ActorID: "tester"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx}
}

func f(v float64) *float64 { return &v }

func TestCreateProjectSeedsSegmentAndConfig(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.Repo.GetProject(env.Ctx, "proj-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if len(p.EDL.Segments) != 1 || p.EDL.Segments[0].End != 100 || !p.EDL.Segments[0].Enabled {
		t.Fatalf("segments = %+v", p.EDL.Segments)
	}
	cfg, err := env.Engine.Repo.GetProjectConfig(env.Ctx, "proj-1")
	if err != nil || cfg.Project.ID != "proj-1" {
		t.Fatalf("config = %+v err=%v", cfg, err)
	}
	if _, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{ID: "proj-1", Name: "again", Duration: 5}); err == nil {
		t.Fatalf("expected duplicate project error")
	}
	evts, err := env.Engine.Repo.LatestEvents(env.Ctx, 10, repo.EventFilter{ProjectID: "proj-1"})
	if err != nil || len(evts) != 1 || evts[0].Type != "project.created" || evts[0].ActorID != "tester" {
		t.Fatalf("events = %+v err=%v", evts, err)
	}
}

func TestEditsPersistWithHistory(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	if s.Fallback() {
		t.Fatalf("stored project should load")
	}
	out, err := s.AddZoom(env.Ctx, 10, 15)
	if err != nil || !out.Applied || out.ID == "" || !out.CanUndo {
		t.Fatalf("add zoom: %+v err=%v", out, err)
	}
	out, err = s.CutAt(env.Ctx, 50)
	if err != nil || !out.Applied {
		t.Fatalf("cut: %+v err=%v", out, err)
	}

	reopened := env.Engine.Open(env.Ctx, "proj-1", "tester")
	p := reopened.Project()
	if len(p.EDL.Zoom) != 1 || len(p.EDL.Segments) != 2 {
		t.Fatalf("reopened edl = %+v", p.EDL)
	}
	if past, _ := reopened.HistoryDepth(); past != 2 {
		t.Fatalf("history depth = %d, want 2", past)
	}
	if out, err := reopened.Undo(env.Ctx); err != nil || !out.Applied {
		t.Fatalf("undo: %+v err=%v", out, err)
	}
	if got := len(reopened.Project().EDL.Segments); got != 1 {
		t.Fatalf("segments after undo = %d", got)
	}
	if out, _ := reopened.Redo(env.Ctx); !out.Applied || out.CanRedo {
		t.Fatalf("redo: %+v", out)
	}
}

func TestRejectedEditsLeaveNoTrace(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	if _, err := s.AddZoom(env.Ctx, 10, 20); err != nil {
		t.Fatal(err)
	}
	before, _ := env.Engine.Repo.LatestEventID(env.Ctx, "proj-1")

	out, err := s.AddZoom(env.Ctx, 15, 30)
	if err != nil || out.Applied || out.Reason != edl.ReasonStartInsideEffect {
		t.Fatalf("add inside effect: %+v err=%v", out, err)
	}
	out, _ = s.DeleteZoom(env.Ctx, "missing")
	if out.Applied || out.Reason != edl.ReasonNotFound {
		t.Fatalf("delete unknown: %+v", out)
	}
	segID := s.Project().EDL.Segments[0].ID
	out, _ = s.DeleteSegment(env.Ctx, segID)
	if out.Applied || out.Reason != edl.ReasonLastSegment {
		t.Fatalf("delete last segment: %+v", out)
	}
	if past, _ := s.HistoryDepth(); past != 1 {
		t.Fatalf("history depth = %d, want 1", past)
	}
	after, _ := env.Engine.Repo.LatestEventID(env.Ctx, "proj-1")
	if after != before {
		t.Fatalf("rejected edits logged events")
	}
}

func TestUpdateZoomExplicitOps(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	a, _ := s.AddZoom(env.Ctx, 10, 14)
	if _, err := s.AddZoom(env.Ctx, 20, 24); err != nil {
		t.Fatal(err)
	}
	out, _ := s.UpdateZoom(env.Ctx, a.ID, engine.EffectUpdate{Op: edl.OpResizeEnd, End: f(30)})
	if !out.Applied {
		t.Fatalf("resize: %+v", out)
	}
	z, _ := edl.Find(s.Project().EDL.Zoom, a.ID)
	if z.End != 20 {
		t.Fatalf("resize should clamp to neighbour, end = %v", z.End)
	}
	out, _ = s.UpdateZoom(env.Ctx, a.ID, engine.EffectUpdate{Op: edl.OpMove, Start: f(18)})
	if out.Applied || out.Reason != edl.ReasonOverlap {
		t.Fatalf("move onto neighbour: %+v", out)
	}
	out, _ = s.UpdateZoom(env.Ctx, a.ID, engine.EffectUpdate{Scale: f(3), X: f(2)})
	if !out.Applied {
		t.Fatalf("payload update: %+v", out)
	}
	z, _ = edl.Find(s.Project().EDL.Zoom, a.ID)
	if z.Scale != 3 || z.X != 1 {
		t.Fatalf("zoom = %+v", z)
	}
	out, _ = s.UpdateZoom(env.Ctx, a.ID, engine.EffectUpdate{Scale: f(0.5)})
	if out.Applied || out.Reason != edl.ReasonInvalidRange {
		t.Fatalf("scale below 1: %+v", out)
	}
}

func TestUpdateZoomBothEdges(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	a, _ := s.AddZoom(env.Ctx, 10, 15)

	out, _ := s.UpdateZoom(env.Ctx, a.ID, engine.EffectUpdate{Start: f(20), End: f(30)})
	if out.Applied || out.Reason != edl.ReasonLengthChanged {
		t.Fatalf("move with new length: %+v", out)
	}
	if z, _ := edl.Find(s.Project().EDL.Zoom, a.ID); z.Start != 10 || z.End != 15 {
		t.Fatalf("rejected move changed zoom: %+v", z)
	}

	out, _ = s.UpdateZoom(env.Ctx, a.ID, engine.EffectUpdate{Start: f(20), End: f(25)})
	if !out.Applied {
		t.Fatalf("move: %+v", out)
	}
	if z, _ := edl.Find(s.Project().EDL.Zoom, a.ID); z.Start != 20 || z.End != 25 {
		t.Fatalf("moved zoom = [%v,%v), want [20,25)", z.Start, z.End)
	}

	out, _ = s.UpdateZoom(env.Ctx, a.ID, engine.EffectUpdate{Op: edl.OpResize, Start: f(30), End: f(40)})
	if !out.Applied {
		t.Fatalf("resize: %+v", out)
	}
	if z, _ := edl.Find(s.Project().EDL.Zoom, a.ID); z.Start != 30 || z.End != 40 {
		t.Fatalf("resized zoom = [%v,%v), want [30,40)", z.Start, z.End)
	}
}

func TestCommittedDraftMatchesView(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	a, _ := s.AddZoom(env.Ctx, 0, 5)

	drafts := []struct {
		name       string
		update     engine.EffectUpdate
		start, end float64
	}{
		{"both edges", engine.EffectUpdate{Start: f(2), End: f(10)}, 2, 7},
		{"explicit resize", engine.EffectUpdate{Op: edl.OpResize, Start: f(1), End: f(10)}, 1, 10},
		{"start only", engine.EffectUpdate{Start: f(3)}, 3, 10},
		{"move past the end", engine.EffectUpdate{Op: edl.OpMove, Start: f(98)}, 93, 100},
	}
	for _, d := range drafts {
		if err := s.SetZoomDraft(a.ID, d.update); err != nil {
			t.Fatalf("%s: set draft: %v", d.name, err)
		}
		view, _ := edl.Find(s.View().EDL.Zoom, a.ID)
		out, err := s.CommitDraft(env.Ctx, engine.TrackZoom)
		if err != nil || !out.Applied {
			t.Fatalf("%s: commit: %+v err=%v", d.name, out, err)
		}
		committed, _ := edl.Find(s.Project().EDL.Zoom, a.ID)
		if committed != view {
			t.Fatalf("%s: committed %+v, draft showed %+v", d.name, committed, view)
		}
		if committed.Start != d.start || committed.End != d.end {
			t.Fatalf("%s: committed [%v,%v), want [%v,%v)", d.name, committed.Start, committed.End, d.start, d.end)
		}
	}
}

func TestMoveIsClampedToProject(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	a, _ := s.AddSpeed(env.Ctx, 10, 20)
	if out, _ := s.UpdateSpeed(env.Ctx, a.ID, engine.EffectUpdate{Op: edl.OpMove, Start: f(95)}); !out.Applied {
		t.Fatalf("move: %+v", out)
	}
	sp, _ := edl.Find(s.Project().EDL.Speed, a.ID)
	if sp.Start != 90 || sp.End != 100 {
		t.Fatalf("speed = %+v", sp)
	}
}

func TestDraftsStayOutOfHistory(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	sp, _ := s.AddSpeed(env.Ctx, 0, 50)
	if err := s.SetSpeedDraft(sp.ID, engine.EffectUpdate{Speed: f(4)}); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if got := s.View().EDL.Speed[0].Speed; got != 4 {
		t.Fatalf("view speed = %v", got)
	}
	if got := s.Project().EDL.Speed[0].Speed; got != 2 {
		t.Fatalf("committed speed = %v", got)
	}
	s.Play()
	if st := s.PlayerState(); st.Rate != 4 {
		t.Fatalf("rate with draft = %v", st.Rate)
	}
	if past, _ := s.HistoryDepth(); past != 1 {
		t.Fatalf("draft entered history")
	}
	out, err := s.CommitDraft(env.Ctx, engine.TrackSpeed)
	if err != nil || !out.Applied {
		t.Fatalf("commit draft: %+v err=%v", out, err)
	}
	if got := s.Project().EDL.Speed[0].Speed; got != 4 {
		t.Fatalf("committed speed = %v", got)
	}
	if _, err := s.CommitDraft(env.Ctx, engine.TrackSpeed); !errors.Is(err, engine.ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	if err := s.SetZoomDraft("missing", engine.EffectUpdate{}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelDraft(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	a, _ := s.AddAnnotation(env.Ctx, 1, 4, domain.AnnotationText)
	text := "hello"
	if err := s.SetAnnotationDraft(a.ID, edl.AnnotationPatch{Text: &text}); err != nil {
		t.Fatal(err)
	}
	if s.View().EDL.Annotations[0].Text != "hello" {
		t.Fatalf("draft not visible")
	}
	if err := s.CancelDraft(""); err != nil {
		t.Fatal(err)
	}
	if s.View().EDL.Annotations[0].Text != "Text" {
		t.Fatalf("draft survived cancel")
	}
	if err := s.CancelDraft("bogus"); err == nil {
		t.Fatalf("expected unknown track error")
	}
}

func TestReconcileDurationSkipsHistory(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	out, err := s.ReconcileDuration(env.Ctx, 120)
	if err != nil || !out.Applied || out.CanUndo {
		t.Fatalf("reconcile: %+v err=%v", out, err)
	}
	p := s.Project()
	if p.Duration != 120 || p.EDL.Segments[0].End != 120 {
		t.Fatalf("project = %+v", p)
	}
	if out, _ := s.ReconcileDuration(env.Ctx, 120); out.Applied {
		t.Fatalf("same duration should be a no-op")
	}
	if out, _ := s.ReconcileDuration(env.Ctx, -1); out.Reason != edl.ReasonInvalidRange {
		t.Fatalf("negative duration: %+v", out)
	}
}

func TestShorterDurationClipsEffects(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	kept, _ := s.AddZoom(env.Ctx, 10, 20)
	tail, _ := s.AddZoom(env.Ctx, 59.8, 70)
	sp, _ := s.AddSpeed(env.Ctx, 55, 65)
	long, _ := s.AddAnnotation(env.Ctx, 45, 70, domain.AnnotationOutline)
	gone, _ := s.AddAnnotation(env.Ctx, 80, 90, domain.AnnotationBlur)
	past, _ := s.HistoryDepth()

	out, err := s.ReconcileDuration(env.Ctx, 60)
	if err != nil || !out.Applied {
		t.Fatalf("reconcile: %+v err=%v", out, err)
	}
	if depth, _ := s.HistoryDepth(); depth != past {
		t.Fatalf("reconcile recorded history: %d -> %d", past, depth)
	}
	p := s.Project()
	if z, ok := edl.Find(p.EDL.Zoom, kept.ID); !ok || z.Start != 10 || z.End != 20 {
		t.Fatalf("zoom inside the new length changed: %+v", z)
	}
	if _, ok := edl.Find(p.EDL.Zoom, tail.ID); ok {
		t.Fatalf("zoom clipped below the minimum should be dropped")
	}
	if got, ok := edl.Find(p.EDL.Speed, sp.ID); !ok || got.Start != 55 || got.End != 60 {
		t.Fatalf("speed = %+v", got)
	}
	if a, ok := edl.FindAnnotation(p.EDL.Annotations, long.ID); !ok || a.End != 60 {
		t.Fatalf("annotation = %+v", a)
	}
	if _, ok := edl.FindAnnotation(p.EDL.Annotations, gone.ID); ok {
		t.Fatalf("annotation past the new length should be dropped")
	}
	stored, err := env.Engine.Repo.GetProject(env.Ctx, "proj-1")
	if err != nil || len(stored.EDL.Zoom) != 1 || len(stored.EDL.Annotations) != 1 {
		t.Fatalf("stored = %+v err=%v", stored.EDL, err)
	}
}

func TestOpenFallsBackToEmptyProject(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "unknown", "tester")
	if !s.Fallback() {
		t.Fatalf("expected fallback")
	}
	p := s.Project()
	if p.ID != "unknown" || len(p.EDL.Segments) != 1 {
		t.Fatalf("fallback project = %+v", p)
	}
	if _, err := s.ReconcileDuration(env.Ctx, 30); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	stored, err := env.Engine.Repo.GetProject(env.Ctx, "unknown")
	if err != nil || stored.Duration != 30 {
		t.Fatalf("stored = %+v err=%v", stored, err)
	}
}

func TestPlaybackSkipsDisabledSegments(t *testing.T) {
	env := newTestEnv(t)
	s := env.Engine.Open(env.Ctx, "proj-1", "tester")
	s.CutAt(env.Ctx, 30)
	s.CutAt(env.Ctx, 60)
	mid := s.Project().EDL.Segments[1]
	if mid.Start != 30 {
		t.Fatalf("middle segment = %+v", mid)
	}
	if out, _ := s.ToggleSegment(env.Ctx, mid.ID); !out.Applied {
		t.Fatalf("toggle failed")
	}
	s.Seek(29)
	s.Play()
	st := s.Tick(2)
	if st.Cursor != 60 || !st.Playing {
		t.Fatalf("state = %+v", st)
	}
	if st.EditedTime != 30 {
		t.Fatalf("edited time = %v", st.EditedTime)
	}
	s.FastForward()
	if st := s.PlayerState(); st.Shuttle != 2 || st.Rate != 2 {
		t.Fatalf("shuttle state = %+v", st)
	}
	st = s.ReverseSkip(0)
	if st.Cursor != 55 || st.Shuttle != 1 {
		t.Fatalf("reverse skip = %+v", st)
	}
}

func TestDeleteProject(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Engine.DeleteProject(env.Ctx, "proj-1", "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.Repo.GetProject(env.Ctx, "proj-1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := env.Engine.DeleteProject(env.Ctx, "proj-1", "tester"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
