// Package schedule decides when flows are due to run.
//
// A Schedule is a pure predicate over the current time, rounded down to
// the minute. Schedules compose: Union runs when either would, Except runs
// when the first would and the second would not. The package has no clock
// of its own beyond reading time.Now; a manager evaluates schedules each
// time an external trigger (e.g. a minutely cron job) invokes it.
package schedule
