// Package flow implements the batch record-processing pipeline engine.
//
// A Flow owns an ordered list of record steps, dependency-graphed update
// and propagate steps, and one record storer. Each Run pulls records from
// the storer, runs the record steps sequentially, runs the update and
// propagate phases on a shared worker pool in dependency order, and writes
// the records back.
//
// Steps are declared with a config schema, bound from an untyped
// configuration document, and validated before anything runs. Records are
// protected with one lock per record, so concurrent steps touching
// disjoint records never contend.
package flow
