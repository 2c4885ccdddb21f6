package settings

import (
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Store owns the current settings snapshot.
type Store struct {
	mu  sync.RWMutex
	cur *State
}

func NewStore(initial *State) *Store {
	if initial == nil {
		initial = Default()
	}
	return &Store{cur: initial}
}

// Snapshot returns the current settings. Callers must not modify it.
func (st *Store) Snapshot() *State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.cur
}

// Draft returns a private copy of the current settings to mutate.
func (st *Store) Draft() *State {
	return st.Snapshot().Clone()
}

// Changed reports whether draft differs from the current snapshot in
// anything but the revision. Nil and empty collections compare equal.
func (st *Store) Changed(draft *State) bool {
	return !Equal(st.Snapshot(), draft)
}

// Equal compares two settings ignoring their revisions.
func Equal(a, b *State) bool {
	return cmp.Equal(a, b,
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(State{}, "Revision"),
	)
}

// Commit installs draft as the new snapshot. The revision increases only
// when the draft differs from the current settings; the committed
// revision is returned.
func (st *Store) Commit(draft *State) uint64 {
	changed := st.Changed(draft)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !changed {
		return st.cur.Revision
	}
	draft.Revision = st.cur.Revision + 1
	st.cur = draft
	return draft.Revision
}

// Replace installs s wholesale, as when restoring saved state. The
// revision still moves forward so cached derivations are invalidated.
func (st *Store) Replace(s *State) uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	s.Revision = st.cur.Revision + 1
	st.cur = s
	return s.Revision
}
