package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Aidan-McNay/courseflow/flow"
	"github.com/Aidan-McNay/courseflow/glock"
)

// YAMLStorer persists records as a YAML document on local disk. Reads take
// a shared cross-process lock on the file and writes take an exclusive
// one, so independently-scheduled flows sharing a path cannot interleave.
//
// In debug mode the storer still reads real records but never writes.
type YAMLStorer[R any] struct {
	path string
}

// YAMLStorerDef returns the storer definition for a YAMLStorer over
// records of type R.
func YAMLStorerDef[R any]() flow.StorerDef[R] {
	return flow.StorerDef[R]{
		Spec: flow.Spec{
			Description: "Stores records as a YAML document on local disk",
			Config: []flow.ConfigKey{
				{
					Name:        "path",
					Type:        flow.TypeString,
					Description: "The path of the YAML file holding the records",
				},
			},
		},
		New: func(s flow.Settings) (flow.Storer[R], error) {
			return &YAMLStorer[R]{path: s.String("path")}, nil
		},
	}
}

// Validate checks that the storage path is usable: its directory must
// exist, and the file itself, if present, must be a regular file.
func (s *YAMLStorer[R]) Validate() error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("storage: directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", dir)
	}
	if info, err := os.Stat(s.path); err == nil && info.IsDir() {
		return fmt.Errorf("storage: %s is a directory, not a file", s.path)
	}
	return nil
}

func (s *YAMLStorer[R]) lockID() string {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		abs = s.path
	}
	return glock.ID("yaml-storer", abs)
}

// GetRecords reads the record list under a shared lock. A missing file
// yields an empty record list.
func (s *YAMLStorer[R]) GetRecords(ctx *flow.StepContext) ([]R, error) {
	var recs []R
	err := glock.With(s.lockID(), glock.Shared, func() error {
		data, err := os.ReadFile(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			ctx.Log().Info().Str("path", s.path).Msg("no record file yet, starting empty")
			return nil
		}
		if err != nil {
			return fmt.Errorf("storage: read %s: %w", s.path, err)
		}
		if err := yaml.Unmarshal(data, &recs); err != nil {
			return fmt.Errorf("storage: decode %s: %w", s.path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ctx.Log().Info().Int("count", len(recs)).Msg("loaded records")
	return recs, nil
}

// SetRecords writes the record list under an exclusive lock. In debug
// mode nothing is written.
func (s *YAMLStorer[R]) SetRecords(ctx *flow.StepContext, recs []R) error {
	if ctx.Debug() {
		ctx.Log().Info().Int("count", len(recs)).Msg("debug mode, not writing records")
		return nil
	}
	data, err := yaml.Marshal(recs)
	if err != nil {
		return fmt.Errorf("storage: encode records: %w", err)
	}
	err = glock.With(s.lockID(), glock.Exclusive, func() error {
		if err := os.WriteFile(s.path, data, 0o644); err != nil {
			return fmt.Errorf("storage: write %s: %w", s.path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	ctx.Log().Info().Int("count", len(recs)).Msg("stored records")
	return nil
}
