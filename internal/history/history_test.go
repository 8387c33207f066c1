package history

import (
	"reflect"
	"testing"

	"cutline/internal/domain"
)

func setName(name string) Mutator {
	return func(p domain.Project) (domain.Project, bool) {
		if p.Name == name {
			return p, false
		}
		p.Name = name
		return p, true
	}
}

func newManager(limit int) *Manager {
	return New(domain.NewProject("p1", "start", 100, domain.Resolution{Width: 1920, Height: 1080}, "2024-01-01T00:00:00Z"), limit)
}

func TestCommitUndoRedoRoundTrip(t *testing.T) {
	m := newManager(0)
	before := m.Snapshot()
	if !m.Commit(setName("one")) {
		t.Fatalf("expected commit")
	}
	after := m.Snapshot()
	if !m.Undo() {
		t.Fatalf("expected undo")
	}
	if m.Snapshot() != before {
		t.Fatalf("undo did not restore the pre-commit snapshot")
	}
	if !m.Redo() {
		t.Fatalf("expected redo")
	}
	if m.Snapshot() != after {
		t.Fatalf("redo did not restore the committed snapshot")
	}
	if m.Current().Name != "one" {
		t.Fatalf("name = %q", m.Current().Name)
	}
}

func TestUnchangedCommitPushesNothing(t *testing.T) {
	m := newManager(0)
	if m.Commit(setName("start")) {
		t.Fatalf("no-op commit reported change")
	}
	if past, future := m.Depth(); past != 0 || future != 0 {
		t.Fatalf("depth = %d/%d", past, future)
	}
}

func TestCommitClearsFuture(t *testing.T) {
	m := newManager(0)
	m.Commit(setName("one"))
	m.Commit(setName("two"))
	m.Undo()
	if !m.CanRedo() {
		t.Fatalf("expected redo available")
	}
	m.Commit(setName("three"))
	if m.CanRedo() {
		t.Fatalf("commit should clear redo stack")
	}
	m.Undo()
	if m.Current().Name != "one" {
		t.Fatalf("undo after branch = %q", m.Current().Name)
	}
}

func TestLimitEvictsOldest(t *testing.T) {
	m := newManager(DefaultLimit)
	for i := 0; i < DefaultLimit+10; i++ {
		m.Commit(setName(string(rune('a' + i%26)) + string(rune('0'+i/26))))
	}
	past, _ := m.Depth()
	if past != DefaultLimit {
		t.Fatalf("past depth = %d, want %d", past, DefaultLimit)
	}
	undone := 0
	for m.Undo() {
		undone++
	}
	if undone != DefaultLimit {
		t.Fatalf("undone = %d", undone)
	}
	if m.Current().Name == "start" {
		t.Fatalf("oldest snapshot should have been evicted")
	}
	_, future := m.Depth()
	if future != DefaultLimit {
		t.Fatalf("future depth = %d", future)
	}
}

func TestPatchIsNotUndoable(t *testing.T) {
	m := newManager(0)
	m.Commit(setName("one"))
	m.Patch(func(p domain.Project) (domain.Project, bool) {
		p.Duration = 120
		return p, true
	})
	if m.Current().Duration != 120 {
		t.Fatalf("patch not applied")
	}
	if past, _ := m.Depth(); past != 1 {
		t.Fatalf("patch touched history: past=%d", past)
	}
}

func TestUndoRedoOnEmptyStacks(t *testing.T) {
	m := newManager(0)
	if m.Undo() || m.Redo() {
		t.Fatalf("expected no-ops on empty stacks")
	}
}

func TestStateRestore(t *testing.T) {
	m := newManager(0)
	m.Commit(setName("one"))
	m.Commit(setName("two"))
	m.Undo()
	st := m.State()
	cur := m.Current()

	other := newManager(0)
	other.Restore(cur, st)
	if !reflect.DeepEqual(other.State(), st) {
		t.Fatalf("restored state differs")
	}
	other.Redo()
	if other.Current().Name != "two" {
		t.Fatalf("redo after restore = %q", other.Current().Name)
	}
	other.Undo()
	other.Undo()
	if other.Current().Name != "start" {
		t.Fatalf("undo after restore = %q", other.Current().Name)
	}
}
