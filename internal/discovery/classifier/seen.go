package classifier

import "sync"

// SeenSet holds the ids of records already dispatched. Only the poll loop
// adds to it; readers such as the health reporter only query its size.
// It is never pruned.
type SeenSet struct {
	ids map[string]struct{}
	mu  sync.RWMutex
}

// NewSeenSet creates an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{
		ids: make(map[string]struct{}),
	}
}

// Contains checks if a record id has been dispatched.
func (s *SeenSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.ids[id]
	return exists
}

// Add inserts id and reports whether it was new.
func (s *SeenSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[id]; exists {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Size returns the number of dispatched ids.
func (s *SeenSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
