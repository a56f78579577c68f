// Package storage provides reference record storers.
//
// A storer implements flow.Storer: it fetches the record list at the
// start of a run and persists it at the end, and it participates in the
// same config/validate contract as ordinary steps. YAMLStorer keeps
// records in a YAML document on local disk, guarded by a cross-process
// lock; MemoryStorer keeps them in memory, for debug runs and tests.
package storage
