package state

import "sync"

// Store serializes writes and publishes snapshots with increasing versions.
//
// Update functions run under the store lock; they must not call back into
// the store.
type Store struct {
	mu      sync.Mutex
	cur     State
	subs    map[int]chan State
	nextSub int
}

// NewStore creates a store whose first snapshot is initial at version 0.
func NewStore(initial State) *Store {
	initial = initial.clone()
	initial.Version = 0
	return &Store{
		cur:  initial,
		subs: make(map[int]chan State),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update applies fn to a copy of the current state and publishes the result.
func (s *Store) Update(fn func(*State)) State {
	next, _ := s.UpdateIf(func(st *State) bool {
		fn(st)
		return true
	})
	return next
}

// UpdateIf applies fn to a copy of the current state and publishes it only
// when fn reports a change. It returns the resulting current state.
func (s *Store) UpdateIf(fn func(*State) bool) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.cur.clone()
	if !fn(&work) {
		return s.cur, false
	}
	work.Version = s.cur.Version + 1
	s.cur = work
	s.publishLocked(work)
	return work, true
}

// publishLocked delivers snap to every subscriber, replacing any snapshot
// the subscriber has not consumed yet.
func (s *Store) publishLocked(snap State) {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Subscribe returns a channel that always holds the latest unseen snapshot,
// primed with the current one, and a function that ends the subscription.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	ch <- s.cur
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
