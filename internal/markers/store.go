package markers

import (
	"sync"

	"markercluster.opengeo.dev/internal/cluster"
)

// Store is a thread-safe in-memory store for loaded marker sets, indexed
// by marker source ID. It allows concurrent access using a sync.RWMutex.
type Store struct {
	mu   sync.RWMutex
	data map[string][]*cluster.Marker
}

// NewStore initializes and returns a new instance of Store.
// The underlying map is lazily initialized on first use in Set.
func NewStore() *Store {
	return &Store{}
}

// Set stores the given marker set for the specified source ID.
// If the internal map is not initialized, it creates it.
// This method is thread-safe and uses a write lock.
func (s *Store) Set(sourceID string, markers []*cluster.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string][]*cluster.Marker)
	}
	s.data[sourceID] = markers
}

// Get retrieves the marker set for the specified source ID.
// This method is thread-safe and uses a read lock.
func (s *Store) Get(sourceID string) ([]*cluster.Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	markers, exists := s.data[sourceID]
	return markers, exists
}

// Delete removes the marker set for the specified source ID.
func (s *Store) Delete(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sourceID)
}

// All returns the markers of every loaded source as one flat slice.
func (s *Store) All() []*cluster.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*cluster.Marker
	for _, markers := range s.data {
		all = append(all, markers...)
	}
	return all
}

// SourceIDs returns the IDs of every source that has a loaded marker set.
func (s *Store) SourceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids
}
