package flow

import "sync"

// Metadata is the flow's shared blackboard: a thread-safe key-value store
// scoped to one run, used by steps to pass derived facts forward without
// widening step interfaces. Values are untyped; a consumer must check the
// shape of what it reads and degrade gracefully on mismatch.
type Metadata struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewMetadata creates an empty blackboard.
func NewMetadata() *Metadata {
	return &Metadata{data: make(map[string]any)}
}

// Get retrieves a value by key. Returns false if the key was never set
// this run.
func (m *Metadata) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set stores a value by key. Last write wins.
func (m *Metadata) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// reset clears the blackboard at the start of a run.
func (m *Metadata) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]any)
}
