// Package history keeps bounded undo/redo stacks of whole-project snapshots.
//
// Snapshots are immutable *domain.Project values shared between the stacks
// and the current slot, so pushing or popping never copies a project. Callers
// must treat every snapshot as read-only and produce new values through
// copy-with-change mutators.
package history

import "cutline/internal/domain"

// DefaultLimit caps each stack.
const DefaultLimit = 50

// Mutator derives a new project from the current one. It reports false when
// the project is unchanged.
type Mutator func(domain.Project) (domain.Project, bool)

// State is the exportable form of both stacks, oldest first.
type State struct {
	Past   []domain.Project `json:"past"`
	Future []domain.Project `json:"future"`
}

type Manager struct {
	limit   int
	current *domain.Project
	past    []*domain.Project
	future  []*domain.Project
}

func New(initial domain.Project, limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	p := initial
	return &Manager{limit: limit, current: &p}
}

// Current returns the live project.
func (m *Manager) Current() domain.Project {
	return *m.current
}

// Snapshot returns the shared pointer to the live project.
func (m *Manager) Snapshot() *domain.Project {
	return m.current
}

// Commit applies fn and, when it changed the project, records the previous
// value for undo and clears the redo stack.
func (m *Manager) Commit(fn Mutator) bool {
	next, changed := fn(*m.current)
	if !changed {
		return false
	}
	m.past = push(m.past, m.current, m.limit)
	m.future = m.future[:0:0]
	m.current = &next
	return true
}

// Patch applies fn without touching either stack.
func (m *Manager) Patch(fn Mutator) bool {
	next, changed := fn(*m.current)
	if !changed {
		return false
	}
	m.current = &next
	return true
}

func (m *Manager) Undo() bool {
	if len(m.past) == 0 {
		return false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = push(m.future, m.current, m.limit)
	m.current = prev
	return true
}

func (m *Manager) Redo() bool {
	if len(m.future) == 0 {
		return false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = push(m.past, m.current, m.limit)
	m.current = next
	return true
}

func (m *Manager) CanUndo() bool { return len(m.past) > 0 }
func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (past, future int) {
	return len(m.past), len(m.future)
}

// State exports both stacks.
func (m *Manager) State() State {
	return State{Past: deref(m.past), Future: deref(m.future)}
}

// Restore replaces the current value and both stacks, trimming each stack to
// the limit.
func (m *Manager) Restore(current domain.Project, st State) {
	c := current
	m.current = &c
	m.past = m.past[:0:0]
	for i := range st.Past {
		m.past = push(m.past, &st.Past[i], m.limit)
	}
	m.future = m.future[:0:0]
	for i := range st.Future {
		m.future = push(m.future, &st.Future[i], m.limit)
	}
}

func push(stack []*domain.Project, p *domain.Project, limit int) []*domain.Project {
	if len(stack) >= limit {
		stack = append(stack[:0:0], stack[len(stack)-limit+1:]...)
	}
	return append(stack, p)
}

func deref(stack []*domain.Project) []domain.Project {
	out := make([]domain.Project, len(stack))
	for i, p := range stack {
		out[i] = *p
	}
	return out
}
