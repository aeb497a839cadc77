package store

import "sync"

// Store owns the State of one session. Dispatch is the only write path;
// every dispatch replaces the state wholesale, so a snapshot returned by
// State is never modified afterwards. Callers must not modify the Tasks
// slice of a snapshot.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[int]chan State
	next  int
}

// New returns a store holding initial.
func New(initial State) *Store {
	return &Store{state: initial, subs: make(map[int]chan State)}
}

// State returns the latest state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and publishes the result to subscribers.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Apply(s.state, a)
	for _, ch := range s.subs {
		publish(ch, s.state)
	}
	return s.state
}

// Subscribe returns a channel that receives the state after each dispatch.
// Slow readers only see the latest state. The returned func unsubscribes
// and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan State, 1)
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

// publish replaces whatever is buffered in ch with st.
func publish(ch chan State, st State) {
	select {
	case <-ch:
	default:
	}
	ch <- st
}
