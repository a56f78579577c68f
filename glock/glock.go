// Package glock provides a named, file-backed mutual exclusion primitive
// that spans operating-system processes.
//
// Independently-scheduled flow processes have no in-memory way to
// coordinate, so shared external resources (e.g. one spreadsheet behind
// two flows' storers) are serialized through advisory file locks in a
// per-user temp directory. Locks support exclusive (writer) and shared
// (reader) modes.
package glock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Mode selects reader/writer semantics for a lock.
type Mode int

const (
	// Exclusive blocks all other holders.
	Exclusive Mode = iota
	// Shared admits other shared holders and blocks exclusive ones.
	Shared
)

// dirName is the subdirectory of the system temp dir holding lock files.
const dirName = "courseflow"

// Lock is a named cross-process lock. The same id names the same lock in
// every process on the host.
type Lock struct {
	mode Mode
	fl   *flock.Flock
}

// New creates a lock handle for the given id. The backing file lives
// under the system temp directory; ids should come from ID so resource
// names do not leak into shared storage.
func New(id string, mode Mode) (*Lock, error) {
	dir := filepath.Join(os.TempDir(), dirName)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, fmt.Errorf("glock: create lock dir: %w", err)
	}
	return &Lock{
		mode: mode,
		fl:   flock.New(filepath.Join(dir, id)),
	}, nil
}

// Acquire blocks until the lock is obtained in the handle's mode.
func (l *Lock) Acquire() error {
	var err error
	if l.mode == Shared {
		err = l.fl.RLock()
	} else {
		err = l.fl.Lock()
	}
	if err != nil {
		return fmt.Errorf("glock: acquire %s: %w", l.fl.Path(), err)
	}
	return nil
}

// Release releases the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("glock: release %s: %w", l.fl.Path(), err)
	}
	return nil
}

// With runs fn while holding the named lock, releasing it on every exit
// path.
func With(id string, mode Mode, fn func() error) error {
	l, err := New(id, mode)
	if err != nil {
		return err
	}
	if err := l.Acquire(); err != nil {
		return err
	}
	defer func() { _ = l.Release() }()
	return fn()
}

// ID derives a stable lock id from the identity of the protected
// resource, so the resource's name is not exposed in the temp directory.
func ID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
