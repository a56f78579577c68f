// Package manager runs many flows on predetermined schedules.
//
// A Manager holds (flow, schedule) pairs. Each Run evaluates every
// schedule once against the current time and executes the due flows, each
// in an isolated operating-system process bounded by a fixed-size pool,
// so one flow's crash cannot take down its siblings. When no process
// launcher is configured, due flows fall back to running sequentially
// in-process.
//
// The manager has no clock of its own: an external trigger (typically a
// minutely cron job) must invoke Run periodically.
package manager
