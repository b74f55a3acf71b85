package workbench

import (
	"sync"

	"github.com/google/uuid"

	"github.com/centrumkenaz/backend/internal/gate"
	"github.com/centrumkenaz/backend/internal/grid"
	"github.com/centrumkenaz/backend/internal/platform"
	"github.com/centrumkenaz/backend/internal/recon"
)

// Session holds one operator's workbench state: the active view with its
// per-view scroll offsets, the sort-state map, the draft map keyed by task ID,
// the last fetched task lists, and the operator's confirmation gate. All
// fields are private; mutation happens only through the methods below, which
// apply the pure transitions from grid and recon under the session lock.
type Session struct {
	OperatorID uuid.UUID

	mu         sync.Mutex
	activeView ViewID
	scroll     map[ViewID]int
	sortState  grid.State
	drafts     recon.Drafts
	tasks      map[recon.Kind][]*recon.Task
	balances   []*platform.BalanceEntry
	gate       *gate.Gate
}

func newSession(operatorID uuid.UUID) *Session {
	seed := make(grid.State, len(defaultSort))
	for v, cs := range defaultSort {
		seed[v] = cs
	}
	return &Session{
		OperatorID: operatorID,
		activeView: ViewPendingPayments,
		scroll:     make(map[ViewID]int),
		sortState:  seed,
		drafts:     recon.Drafts{},
		tasks:      make(map[recon.Kind][]*recon.Task),
		gate:       gate.New(),
	}
}

// SelectView switches the active view, remembering the previous view's scroll
// offset so switching back restores the operator's position.
func (s *Session) SelectView(v ViewID, currentScroll int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scroll[s.activeView] = currentScroll
	s.activeView = v
}

// ViewState returns the active view and its remembered scroll offset.
func (s *Session) ViewState() (ViewID, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeView, s.scroll[s.activeView]
}

// ToggleSort advances the sort cycle for key in the given view.
func (s *Session) ToggleSort(v ViewID, key string) []grid.Criterion {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortState = grid.Toggle(s.sortState, string(v), key)
	return s.sortState[string(v)]
}

// Criteria returns the active sort criteria for a view.
func (s *Session) Criteria(v ViewID) []grid.Criterion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortState[string(v)]
}

// SetTasks stores a freshly fetched list and reseeds the draft set for it.
// Unsaved drafts of still-pending tasks survive; pass the just-committed task
// ID in committedID (or "") so its draft reseeds from the authoritative base.
func (s *Session) SetTasks(kind recon.Kind, tasks []*recon.Task, committedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[kind] = tasks
	old := s.drafts
	if committedID != "" {
		old = old.Without(committedID)
	}
	merged := recon.Reseed(old, s.allTasksLocked())
	s.drafts = merged
}

// allTasksLocked flattens the cached lists. Caller holds s.mu.
func (s *Session) allTasksLocked() []*recon.Task {
	var all []*recon.Task
	for _, list := range s.tasks {
		all = append(all, list...)
	}
	return all
}

// TasksFor returns the cached list for a kind.
func (s *Session) TasksFor(kind recon.Kind) []*recon.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[kind]
}

// FindTask looks a task up by ID across all cached lists.
func (s *Session) FindTask(taskID string) (*recon.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.tasks {
		for _, t := range list {
			if t.TaskID == taskID {
				return t, true
			}
		}
	}
	return nil, false
}

// DraftFor returns the draft for a task, seeding one if the task is known but
// has no draft yet.
func (s *Session) DraftFor(t *recon.Task) recon.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[t.TaskID]; ok {
		return d
	}
	return recon.SeedDraft(t)
}

// PatchDraft applies a patch to the task's draft and stores the result.
func (s *Session) PatchDraft(t *recon.Task, p recon.Patch) recon.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.drafts[t.TaskID]
	if !ok {
		cur = recon.SeedDraft(t)
	}
	next := recon.ApplyPatch(t, cur, p)
	s.drafts = s.drafts.With(next)
	return next
}

// SetBalances stores the fetched balance breakdown.
func (s *Session) SetBalances(entries []*platform.BalanceEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = entries
}

// Balances returns the cached balance breakdown.
func (s *Session) Balances() []*platform.BalanceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances
}

// Gate returns the session's confirmation gate.
func (s *Session) Gate() *gate.Gate { return s.gate }

// SessionStore hands out one session per operator, creating it on first use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (st *SessionStore) Get(operatorID uuid.UUID) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[operatorID]; ok {
		return s
	}
	s := newSession(operatorID)
	st.sessions[operatorID] = s
	return s
}
