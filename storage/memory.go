package storage

import (
	"sync"

	"github.com/Aidan-McNay/courseflow/flow"
)

// MemoryStorer keeps records in process memory. It backs debug runs and
// tests, where fetching from real storage would be a side effect.
type MemoryStorer[R any] struct {
	mu   sync.Mutex
	recs []R
}

// NewMemoryStorer creates a memory storer seeded with the given records.
func NewMemoryStorer[R any](seed ...R) *MemoryStorer[R] {
	return &MemoryStorer[R]{recs: seed}
}

// Def returns the storer definition handing out this same instance, so a
// test or debug flow can inspect the stored records afterwards.
func (m *MemoryStorer[R]) Def() flow.StorerDef[R] {
	return flow.StorerDef[R]{
		Spec: flow.Spec{
			Description: "Stores records in process memory",
			Config:      []flow.ConfigKey{},
		},
		New: func(flow.Settings) (flow.Storer[R], error) {
			return m, nil
		},
	}
}

// Validate always succeeds; memory needs no reachability checks.
func (m *MemoryStorer[R]) Validate() error { return nil }

// GetRecords returns a copy of the held records.
func (m *MemoryStorer[R]) GetRecords(ctx *flow.StepContext) ([]R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]R, len(m.recs))
	copy(recs, m.recs)
	ctx.Log().Info().Int("count", len(recs)).Msg("loaded records")
	return recs, nil
}

// SetRecords replaces the held records. Debug mode skips the write, to
// mirror how persistent storers behave.
func (m *MemoryStorer[R]) SetRecords(ctx *flow.StepContext, recs []R) error {
	if ctx.Debug() {
		ctx.Log().Info().Int("count", len(recs)).Msg("debug mode, not writing records")
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = make([]R, len(recs))
	copy(m.recs, recs)
	ctx.Log().Info().Int("count", len(recs)).Msg("stored records")
	return nil
}

// Records returns a copy of the currently held records.
func (m *MemoryStorer[R]) Records() []R {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]R, len(m.recs))
	copy(recs, m.recs)
	return recs
}
