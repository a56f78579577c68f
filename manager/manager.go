package manager

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Aidan-McNay/courseflow/config"
	"github.com/Aidan-McNay/courseflow/flow"
	"github.com/Aidan-McNay/courseflow/schedule"
)

// Launcher describes how to start one flow in an isolated process,
// typically by re-invoking the host binary with a subcommand that runs
// the named flow.
type Launcher struct {
	// Command builds the subprocess invocation for a flow name.
	Command func(flowName string) Command
}

type managedFlow struct {
	flow  flow.Handle
	sched schedule.Schedule
}

// Manager runs many flows on predetermined schedules.
type Manager struct {
	numProcs int
	flows    []managedFlow
	launcher *Launcher
	log      zerolog.Logger

	// now is replaced in tests.
	now func() time.Time
}

// New creates a manager with no flows. numProcs bounds how many flow
// processes run concurrently.
func New(numProcs int) (*Manager, error) {
	if numProcs < 1 {
		return nil, fmt.Errorf("manager: process pool size must be positive, got %d", numProcs)
	}
	return &Manager{
		numProcs: numProcs,
		log: zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04",
		}).With().Timestamp().Logger(),
		now: time.Now,
	}, nil
}

// SetLauncher configures process-level isolation. Without a launcher, due
// flows run sequentially in-process.
func (m *Manager) SetLauncher(l Launcher) { m.launcher = &l }

func (m *Manager) checkNotAdded(f flow.Handle) error {
	for _, mf := range m.flows {
		if mf.flow.Name() == f.Name() {
			return fmt.Errorf("manager: flow %q already added", f.Name())
		}
	}
	return nil
}

// AddConfiguredFlow registers an already-configured flow to run on a
// schedule.
func (m *Manager) AddConfiguredFlow(f flow.Handle, sched schedule.Schedule) error {
	if err := m.checkNotAdded(f); err != nil {
		return err
	}
	if !f.Configured() {
		return fmt.Errorf("manager: flow %q is not configured", f.Name())
	}
	m.flows = append(m.flows, managedFlow{flow: f, sched: sched})
	return nil
}

// AddUnconfiguredFlow registers an unconfigured flow, configuring it from
// the YAML document at configPath and applying the given logfiles and
// silence before it is accepted.
func (m *Manager) AddUnconfiguredFlow(
	f flow.Handle,
	sched schedule.Schedule,
	configPath string,
	logfiles []string,
	silent bool,
) error {
	if err := m.checkNotAdded(f); err != nil {
		return err
	}
	if f.Configured() {
		return fmt.Errorf("manager: flow %q is already configured", f.Name())
	}
	raw, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := f.Config(raw); err != nil {
		return err
	}
	for _, logfile := range logfiles {
		if err := f.Logfile(logfile); err != nil {
			return err
		}
	}
	if silent {
		f.Silent()
	} else {
		f.Verbose()
	}
	m.flows = append(m.flows, managedFlow{flow: f, sched: sched})
	return nil
}

// Run evaluates every schedule once against the current time and executes
// the due flows. One invocation is one decision point; the caller is
// responsible for invoking Run periodically.
func (m *Manager) Run(ctx context.Context) error {
	var due []flow.Handle
	now := m.now()
	for _, mf := range m.flows {
		if mf.sched.ShouldRunAt(now) {
			due = append(due, mf.flow)
		}
	}
	if len(due) == 0 {
		return nil
	}

	if m.launcher == nil {
		return m.runInProcess(due)
	}
	return m.runIsolated(ctx, due)
}

// runInProcess runs due flows sequentially in this process. A flow's
// failure is logged and does not stop the remaining flows.
func (m *Manager) runInProcess(due []flow.Handle) error {
	var lastErr error
	for _, f := range due {
		m.log.Info().Str("flow", f.Name()).Msg("running flow in-process")
		if err := f.Run(); err != nil {
			m.log.Err(err).Str("flow", f.Name()).Msg("flow run failed")
			lastErr = err
		}
	}
	return lastErr
}

// runIsolated runs due flows through the launcher, each in its own OS
// process, at most numProcs at a time. One flow's crash never affects its
// siblings.
func (m *Manager) runIsolated(ctx context.Context, due []flow.Handle) error {
	sem := make(chan struct{}, m.numProcs)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var lastErr error

	for _, f := range due {
		wg.Add(1)
		go func(f flow.Handle) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			m.log.Info().Str("flow", f.Name()).Msg("launching flow process")
			result, err := runProcess(ctx, m.launcher.Command(f.Name()))
			if err != nil {
				m.log.Err(err).Str("flow", f.Name()).Msg("flow process failed")
				mu.Lock()
				lastErr = err
				mu.Unlock()
				return
			}
			m.log.Info().
				Str("flow", f.Name()).
				Dur("duration", result.Duration).
				Msg("flow process finished")
		}(f)
	}
	wg.Wait()
	return lastErr
}
