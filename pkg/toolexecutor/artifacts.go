package toolexecutor

import "sync"

// ArtifactStore keeps named tool outputs for the lifetime of the process.
// Writing an existing name replaces its data and keeps its position.
type ArtifactStore struct {
	mu    sync.RWMutex
	order []string
	data  map[string]string
}

// NewArtifactStore creates an empty store
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{data: make(map[string]string)}
}

// Put stores data under name and reports whether it replaced an entry
func (s *ArtifactStore) Put(name, data string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, replaced := s.data[name]
	if !replaced {
		s.order = append(s.order, name)
	}
	s.data[name] = data
	return replaced
}

// Get returns the data stored under name
func (s *ArtifactStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	return data, ok
}

// List returns every artifact in first-write order
func (s *ArtifactStore) List() []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Artifact, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Artifact{Name: name, Data: s.data[name]})
	}
	return out
}

// Len returns the number of stored artifacts
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
