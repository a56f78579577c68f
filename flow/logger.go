package flow

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// flowLogger owns the flow's zerolog output: an optional console writer
// plus any number of logfiles. Writers may be adjusted between runs; the
// logger itself is safe for concurrent use by steps.
type flowLogger struct {
	mu      sync.Mutex
	name    string
	console bool
	files   []io.Writer
	log     zerolog.Logger
}

func newFlowLogger(name string) *flowLogger {
	l := &flowLogger{name: name, console: true}
	l.rebuild()
	return l
}

func (l *flowLogger) rebuild() {
	var writers []io.Writer
	if l.console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04",
		})
	}
	writers = append(writers, l.files...)
	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}
	l.log = zerolog.New(out).With().Timestamp().Str("flow", l.name).Logger()
}

// addFile appends a logfile destination.
func (l *flowLogger) addFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("flow: logfile path %s already exists and is not a file", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("flow: open logfile: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = append(l.files, f)
	l.rebuild()
	return nil
}

// setConsole toggles terminal output.
func (l *flowLogger) setConsole(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = enabled
	l.rebuild()
}

// flowLog returns the flow-scoped logger.
func (l *flowLogger) flowLog() zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.log
}

// stepLog returns a logger scoped to one step.
func (l *flowLogger) stepLog(step string) zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.log.With().Str("step", step).Logger()
}
