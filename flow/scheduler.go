package flow

import (
	"sync"
)

// runPhase drives one concurrent phase (update or propagate) to
// completion.
//
// numThreads long-lived workers drain a FIFO work channel. The dispatcher
// releases a step once every one of its dependencies has finished its run
// call. Finished is not succeeded: a failing step still satisfies its
// dependents, and step authors are responsible for leaving records in a
// safe state on partial failure. Completion events wake the dispatcher
// over a channel, so there is no polling latency.
//
// Excluded steps are dropped from the phase and pruned from every other
// step's dependency set, so excluding a step implicitly satisfies anyone
// who depended on it.
func (f *Flow[R]) runPhase(phase string, steps []phaseStep[R], recs []*Locked[R]) error {
	if f.numThreads < 1 {
		return configErr(f.name, "num_threads", "must be a positive integer")
	}

	enabled := pruneExcluded(steps)
	if len(enabled) == 0 {
		return nil
	}

	log := f.logger.flowLog()
	workCh := make(chan phaseStep[R], len(enabled))
	doneCh := make(chan string, len(enabled))

	var wg sync.WaitGroup
	for i := 0; i < f.numThreads; i++ {
		wg.Add(1)
		worker := i
		go func() {
			defer wg.Done()
			for st := range workCh {
				log.Info().
					Str("phase", phase).
					Int("worker", worker).
					Msgf("running %s", st.name)
				f.executeStep(st, recs)
				doneCh <- st.name
			}
		}()
	}

	remaining := enabled
	completed := make(map[string]bool, len(enabled))
	inflight := 0

	for len(remaining) > 0 || inflight > 0 {
		// Dispatch every step whose dependencies are all complete.
		var blocked []phaseStep[R]
		for _, st := range remaining {
			if depsSatisfied(st.deps, completed) {
				workCh <- st
				inflight++
			} else {
				blocked = append(blocked, st)
			}
		}
		remaining = blocked

		if inflight == 0 && len(remaining) > 0 {
			// Nothing running and nothing dispatchable: the graph cannot
			// make progress. Unreachable for graphs built through the
			// registration API, which only admits acyclic, same-phase
			// dependencies; fail fast rather than spin.
			close(workCh)
			wg.Wait()
			return configErr(f.name, "",
				"phase "+phase+" stalled: unsatisfiable step dependencies")
		}

		if inflight > 0 {
			// Block until at least one step finishes, then drain any
			// other completions before rescanning.
			name := <-doneCh
			completed[name] = true
			inflight--
			for drained := false; !drained; {
				select {
				case name := <-doneCh:
					completed[name] = true
					inflight--
				default:
					drained = true
				}
			}
		}
	}

	close(workCh)
	wg.Wait()
	return nil
}

// executeStep is the per-step error boundary: a failing or panicking step
// loses only its own contribution for this run. The worker survives and
// the step still counts as complete for its dependents.
func (f *Flow[R]) executeStep(st phaseStep[R], recs []*Locked[R]) {
	ctx := f.stepContext(st.name)
	defer func() {
		if r := recover(); r != nil {
			ctx.Log().Error().Interface("panic", r).Msg("step panicked")
		}
	}()
	if err := st.run(ctx, recs); err != nil {
		ctx.Log().Err(err).Msg("step failed")
	}
}

func pruneExcluded[R any](steps []phaseStep[R]) []phaseStep[R] {
	included := make(map[string]bool, len(steps))
	for _, st := range steps {
		if st.mode != ModeExclude {
			included[st.name] = true
		}
	}

	var enabled []phaseStep[R]
	for _, st := range steps {
		if st.mode == ModeExclude {
			continue
		}
		var deps []string
		for _, dep := range st.deps {
			if included[dep] {
				deps = append(deps, dep)
			}
		}
		st.deps = deps
		enabled = append(enabled, st)
	}
	return enabled
}

func depsSatisfied(deps []string, completed map[string]bool) bool {
	for _, dep := range deps {
		if !completed[dep] {
			return false
		}
	}
	return true
}
