package flow

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Mode selects how a configured step participates in a run.
type Mode string

const (
	// ModeInclude runs the step normally.
	ModeInclude Mode = "include"
	// ModeExclude drops the step from the run. Steps that depend on an
	// excluded step treat its dependency as satisfied.
	ModeExclude Mode = "exclude"
	// ModeDebug runs the step with the debug flag set: the step must not
	// mutate any external state and may fabricate plausible data.
	ModeDebug Mode = "debug"
)

func parseMode(stepName string, v any) (Mode, error) {
	s, ok := v.(string)
	if !ok {
		return "", configErr(stepName, stepName+"-mode", fmt.Sprintf("mode %v is not a string", v))
	}
	switch Mode(s) {
	case ModeInclude, ModeExclude, ModeDebug:
		return Mode(s), nil
	}
	return "", configErr(stepName, stepName+"-mode",
		fmt.Sprintf("unknown mode %q (want %q, %q, or %q)", s, ModeInclude, ModeExclude, ModeDebug))
}

// Step is the contract every configured unit of work satisfies. Validate
// may perform external reachability and sanity checks; it runs exactly
// once, immediately after construction.
type Step interface {
	Validate() error
}

// RecordStep adds or removes records. Record steps run sequentially, in
// registration order, before either concurrent phase.
type RecordStep[R any] interface {
	Step
	NewRecords(ctx *StepContext, recs []R) ([]R, error)
}

// UpdateStep mutates records in place. Update steps run concurrently,
// ordered only by their declared dependencies; a record may only be
// touched through its lock.
type UpdateStep[R any] interface {
	Step
	UpdateRecords(ctx *StepContext, recs []*Locked[R]) error
}

// PropagateStep pushes record state out to external entities. It shares
// the update-step execution model; by convention it should not further
// mutate records.
type PropagateStep[R any] interface {
	Step
	PropagateRecords(ctx *StepContext, recs []*Locked[R]) error
}

// Storer retrieves and persists the record list. A storer participates in
// the same configuration contract as an ordinary step, so backends can be
// swapped without touching the flow.
type Storer[R any] interface {
	Step
	GetRecords(ctx *StepContext) ([]R, error)
	SetRecords(ctx *StepContext, recs []R) error
}

// Spec declares the static shape of a step: its description and config
// schema. Both must be set; a zero Spec is rejected at registration.
type Spec struct {
	Description string
	Config      []ConfigKey
}

// describeConfig returns the config template block for this spec.
func (s Spec) describeConfig() map[string]any {
	out := make(map[string]any, len(s.Config)+1)
	out["_description"] = s.Description
	for _, key := range s.Config {
		out[key.Name] = fmt.Sprintf("(%s) %s", key.Type, key.Description)
	}
	return out
}

// RecordDef pairs a record step's spec with its constructor.
type RecordDef[R any] struct {
	Spec Spec
	New  func(Settings) (RecordStep[R], error)
}

// UpdateDef pairs an update step's spec with its constructor.
type UpdateDef[R any] struct {
	Spec Spec
	New  func(Settings) (UpdateStep[R], error)
}

// PropagateDef pairs a propagate step's spec with its constructor.
type PropagateDef[R any] struct {
	Spec Spec
	New  func(Settings) (PropagateStep[R], error)
}

// StorerDef pairs a storer's spec with its constructor.
type StorerDef[R any] struct {
	Spec Spec
	New  func(Settings) (Storer[R], error)
}

// checkSpec rejects placeholder specs: a def must carry a description, a
// config schema, and a constructor before it can be registered.
func checkSpec(name string, spec Spec, haveCtor bool) error {
	if spec.Description == "" {
		return configErr(name, "", "step did not set a description")
	}
	if spec.Config == nil {
		return configErr(name, "", "step did not set a config schema")
	}
	if !haveCtor {
		return configErr(name, "", "step did not set a constructor")
	}
	return nil
}

// buildStep binds raw config against the declared schema, constructs the
// step, and runs its Validate hook. No partially-constructed step is ever
// returned.
func buildStep[S Step](name string, spec Spec, ctor func(Settings) (S, error), raw map[string]any) (S, error) {
	var zero S
	settings, err := bindSettings(name, spec.Config, raw)
	if err != nil {
		return zero, err
	}
	step, err := ctor(settings)
	if err != nil {
		return zero, &ConfigError{Step: name, Reason: "constructor failed", Cause: err}
	}
	if err := step.Validate(); err != nil {
		return zero, &ValidationError{Step: name, Reason: "validation failed", Cause: err}
	}
	return step, nil
}

// StepContext is handed to every step and storer invocation. It carries
// the step's logger, access to the flow's metadata blackboard, and the
// debug flag.
type StepContext struct {
	log   zerolog.Logger
	meta  *Metadata
	debug bool
}

// NewStepContext builds a context for exercising a step outside a flow,
// e.g. in a step implementation's own tests.
func NewStepContext(log zerolog.Logger, meta *Metadata, debug bool) *StepContext {
	if meta == nil {
		meta = NewMetadata()
	}
	return &StepContext{log: log, meta: meta, debug: debug}
}

// Log returns the step's logger.
func (c *StepContext) Log() *zerolog.Logger { return &c.log }

// Debug reports whether the step runs in debug mode. In debug mode a step
// must not mutate any state external to the run.
func (c *StepContext) Debug() bool { return c.debug }

// GetMetadata retrieves metadata previously set during this run.
func (c *StepContext) GetMetadata(key string) (any, bool) {
	return c.meta.Get(key)
}

// SetMetadata stores metadata for later steps in this run.
func (c *StepContext) SetMetadata(key string, value any) {
	c.meta.Set(key, value)
}
