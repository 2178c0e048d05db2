package sim

import "sync"

// Set is the live collection of bodies. It only grows: bodies are appended during
// spawn and never removed, so a slice handed out by All stays valid.
type Set struct {
	mu     sync.RWMutex
	bodies []*Body
}

func (s *Set) add(b *Body) {
	s.mu.Lock()
	s.bodies = append(s.bodies, b)
	s.mu.Unlock()
}

// All returns the current members. The result shares storage with the set but is
// capped, so later appends never write into it.
func (s *Set) All() []*Body {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.bodies)
	return s.bodies[:n:n]
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bodies)
}

// Get looks a body up by id. Ids are assigned densely from zero in spawn order.
func (s *Set) Get(id int) (*Body, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.bodies) {
		return nil, false
	}
	return s.bodies[id], true
}

// release drops every body at teardown, after all drivers have exited.
func (s *Set) release() {
	s.mu.Lock()
	s.bodies = nil
	s.mu.Unlock()
}
