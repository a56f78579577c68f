package flow

import "sync"

// Locked guards one record with its own mutex, so concurrent steps
// touching disjoint records never contend and steps touching the same
// record serialize.
type Locked[R any] struct {
	mu  sync.Mutex
	rec R
}

func newLocked[R any](rec R) *Locked[R] {
	return &Locked[R]{rec: rec}
}

// With runs fn with the record's lock held. A step must never nest With
// calls across two records; holding one record lock at a time keeps
// deadlock structurally impossible.
func (l *Locked[R]) With(fn func(rec *R)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.rec)
}

// Value returns a snapshot of the record, taken under its lock.
func (l *Locked[R]) Value() R {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec
}

func lockRecords[R any](recs []R) []*Locked[R] {
	locked := make([]*Locked[R], len(recs))
	for i, rec := range recs {
		locked[i] = newLocked(rec)
	}
	return locked
}

func unlockRecords[R any](locked []*Locked[R]) []R {
	recs := make([]R, len(locked))
	for i, l := range locked {
		recs[i] = l.Value()
	}
	return recs
}
