package flow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// flowConfigKeys is the flow-level config schema, declared in the same
// shape as step schemas so it shows up in config templates.
var flowConfigKeys = []ConfigKey{
	{
		Name: "num_threads",
		Type: TypeInt,
		Description: "The number of worker threads to use when running " +
			"update and propagate steps",
	},
}

// Handle is the type-erased view of a Flow, used by the manager and the
// CLI wrapper, which do not care about the record type.
type Handle interface {
	Name() string
	Description() string
	Configured() bool
	Config(raw map[string]any) error
	DescribeConfig() map[string]any
	Logfile(path string) error
	Silent()
	Verbose()
	Run() error
}

// compile-time assertion that Flow implements Handle
var _ Handle = (*Flow[struct{}])(nil)

type namedRecordDef[R any] struct {
	name string
	def  RecordDef[R]
}

type namedGraphDef[S Step] struct {
	name string
	spec Spec
	ctor func(Settings) (S, error)
	deps []string
}

type boundRecordStep[R any] struct {
	name string
	step RecordStep[R]
}

// phaseStep is the scheduler's unit of work: update and propagate steps
// are adapted to the same shape so one scheduler serves both phases.
type phaseStep[R any] struct {
	name string
	deps []string
	mode Mode
	run  func(ctx *StepContext, recs []*Locked[R]) error
}

// Flow is one complete pipeline definition over records of type R.
//
// A Flow is created once, steps are registered, Config transitions it to
// runnable exactly once, and Run may then be invoked repeatedly; each Run
// is one pipeline cycle over a freshly fetched record set.
type Flow[R any] struct {
	name        string
	description string

	storerName string
	storerDef  StorerDef[R]
	storer     Storer[R]

	recordDefs    []namedRecordDef[R]
	updateDefs    []namedGraphDef[UpdateStep[R]]
	propagateDefs []namedGraphDef[PropagateStep[R]]

	recordSteps    []boundRecordStep[R]
	updateSteps    []phaseStep[R]
	propagateSteps []phaseStep[R]

	modes      map[string]Mode
	numThreads int
	configured bool

	meta   *Metadata
	logger *flowLogger
}

// New creates a flow with a name, a description, and a record storer
// definition. The storer occupies a name in the same namespace as steps.
func New[R any](name, description, storerName string, storer StorerDef[R]) *Flow[R] {
	return &Flow[R]{
		name:        name,
		description: description,
		storerName:  storerName,
		storerDef:   storer,
		modes:       make(map[string]Mode),
		meta:        NewMetadata(),
		logger:      newFlowLogger(name),
	}
}

// Name returns the flow's name.
func (f *Flow[R]) Name() string { return f.name }

// Description returns the flow's description.
func (f *Flow[R]) Description() string { return f.description }

// Configured reports whether Config has completed.
func (f *Flow[R]) Configured() bool { return f.configured }

// Silent suppresses terminal output.
func (f *Flow[R]) Silent() { f.logger.setConsole(false) }

// Verbose enables terminal output, if it was previously suppressed.
func (f *Flow[R]) Verbose() { f.logger.setConsole(true) }

// Logfile adds a logfile path to record the flow's output to.
func (f *Flow[R]) Logfile(path string) error { return f.logger.addFile(path) }

// SetMetadata stores a value on the flow's blackboard for this run.
func (f *Flow[R]) SetMetadata(key string, value any) { f.meta.Set(key, value) }

// GetMetadata retrieves a value from the flow's blackboard.
func (f *Flow[R]) GetMetadata(key string) (any, bool) { return f.meta.Get(key) }

// stepNames returns every registered step name, in registration order
// within each phase.
func (f *Flow[R]) stepNames() []string {
	names := make([]string, 0, len(f.recordDefs)+len(f.updateDefs)+len(f.propagateDefs))
	for _, d := range f.recordDefs {
		names = append(names, d.name)
	}
	for _, d := range f.updateDefs {
		names = append(names, d.name)
	}
	for _, d := range f.propagateDefs {
		names = append(names, d.name)
	}
	return names
}

func (f *Flow[R]) nameTaken(name string) bool {
	if name == f.storerName {
		return true
	}
	for _, existing := range f.stepNames() {
		if existing == name {
			return true
		}
	}
	return false
}

// AddRecordStep registers a record step. Record steps run sequentially in
// registration order and carry no dependencies.
func (f *Flow[R]) AddRecordStep(name string, def RecordDef[R]) error {
	if err := checkSpec(name, def.Spec, def.New != nil); err != nil {
		return err
	}
	if f.nameTaken(name) {
		return configErr(name, "", "a step with this name already exists")
	}
	f.recordDefs = append(f.recordDefs, namedRecordDef[R]{name: name, def: def})
	return nil
}

// AddUpdateStep registers an update step. Every name in dependsOn must
// already be registered as an update step; registration order is therefore
// always a valid topological prefix and dependency cycles cannot be
// declared.
func (f *Flow[R]) AddUpdateStep(name string, def UpdateDef[R], dependsOn ...string) error {
	if err := checkSpec(name, def.Spec, def.New != nil); err != nil {
		return err
	}
	if f.nameTaken(name) {
		return configErr(name, "", "a step with this name already exists")
	}
	if err := checkDeps(name, dependsOn, stepDefNames(f.updateDefs), "update"); err != nil {
		return err
	}
	f.updateDefs = append(f.updateDefs, namedGraphDef[UpdateStep[R]]{
		name: name, spec: def.Spec, ctor: def.New, deps: dependsOn,
	})
	return nil
}

// AddPropagateStep registers a propagate step. Every name in dependsOn
// must already be registered as a propagate step.
func (f *Flow[R]) AddPropagateStep(name string, def PropagateDef[R], dependsOn ...string) error {
	if err := checkSpec(name, def.Spec, def.New != nil); err != nil {
		return err
	}
	if f.nameTaken(name) {
		return configErr(name, "", "a step with this name already exists")
	}
	if err := checkDeps(name, dependsOn, stepDefNames(f.propagateDefs), "propagate"); err != nil {
		return err
	}
	f.propagateDefs = append(f.propagateDefs, namedGraphDef[PropagateStep[R]]{
		name: name, spec: def.Spec, ctor: def.New, deps: dependsOn,
	})
	return nil
}

func stepDefNames[S Step](defs []namedGraphDef[S]) map[string]bool {
	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.name] = true
	}
	return names
}

func checkDeps(name string, deps []string, samePhase map[string]bool, phase string) error {
	for _, dep := range deps {
		if !samePhase[dep] {
			return configErr(name, "",
				fmt.Sprintf("dependency %q does not exist as a %s step", dep, phase))
		}
	}
	return nil
}

// DescribeConfig returns a config template for the flow and every step:
// a nested document whose values describe each key's type and purpose.
// Dumped as YAML it doubles as documentation for operators.
func (f *Flow[R]) DescribeConfig() map[string]any {
	out := make(map[string]any)
	out["_description"] = f.description
	for _, key := range flowConfigKeys {
		out[key.Name] = fmt.Sprintf("(%s) %s", key.Type, key.Description)
	}

	out[f.storerName+"-mode"] = fmt.Sprintf(
		"(string) The mode to run %s in (either %q or %q)",
		f.storerName, ModeInclude, ModeDebug)
	for _, name := range f.stepNames() {
		out[name+"-mode"] = fmt.Sprintf(
			"(string) The mode to run %s in (%q, %q, or %q)",
			name, ModeInclude, ModeExclude, ModeDebug)
	}

	out[f.storerName] = f.storerDef.Spec.describeConfig()
	for _, d := range f.recordDefs {
		out[d.name] = d.def.Spec.describeConfig()
	}
	for _, d := range f.updateDefs {
		out[d.name] = d.spec.describeConfig()
	}
	for _, d := range f.propagateDefs {
		out[d.name] = d.spec.describeConfig()
	}
	return out
}

// Config binds the raw configuration document, constructing and validating
// the storer and every registered step. It is the one-time transition from
// declared to runnable: configuring an already-configured flow fails, and
// no step escapes half-built.
func (f *Flow[R]) Config(raw map[string]any) error {
	if f.configured {
		return configErr(f.name, "", "flow is already configured")
	}

	numThreads, err := f.bindNumThreads(raw)
	if err != nil {
		return err
	}

	// Modes first, so every step's mode is known before construction.
	storerMode, err := f.bindMode(raw, f.storerName)
	if err != nil {
		return err
	}
	if storerMode == ModeExclude {
		return configErr(f.storerName, "", "a record storer cannot be excluded")
	}
	modes := map[string]Mode{f.storerName: storerMode}
	for _, name := range f.stepNames() {
		mode, err := f.bindMode(raw, name)
		if err != nil {
			return err
		}
		modes[name] = mode
	}

	if err := checkSpec(f.storerName, f.storerDef.Spec, f.storerDef.New != nil); err != nil {
		return err
	}
	storerRaw, err := nestedConfig(raw, f.storerName)
	if err != nil {
		return err
	}
	storer, err := buildStep(f.storerName, f.storerDef.Spec, f.storerDef.New, storerRaw)
	if err != nil {
		return err
	}

	var recordSteps []boundRecordStep[R]
	for _, d := range f.recordDefs {
		stepRaw, err := nestedConfig(raw, d.name)
		if err != nil {
			return err
		}
		step, err := buildStep(d.name, d.def.Spec, d.def.New, stepRaw)
		if err != nil {
			return err
		}
		recordSteps = append(recordSteps, boundRecordStep[R]{name: d.name, step: step})
	}

	updateSteps, err := bindGraphDefs(raw, modes, f.updateDefs,
		func(s UpdateStep[R]) func(*StepContext, []*Locked[R]) error { return s.UpdateRecords })
	if err != nil {
		return err
	}
	propagateSteps, err := bindGraphDefs(raw, modes, f.propagateDefs,
		func(s PropagateStep[R]) func(*StepContext, []*Locked[R]) error { return s.PropagateRecords })
	if err != nil {
		return err
	}

	f.numThreads = numThreads
	f.modes = modes
	f.storer = storer
	f.recordSteps = recordSteps
	f.updateSteps = updateSteps
	f.propagateSteps = propagateSteps
	f.configured = true
	return nil
}

func (f *Flow[R]) bindNumThreads(raw map[string]any) (int, error) {
	settings, err := bindSettings(f.name, flowConfigKeys, raw)
	if err != nil {
		return 0, err
	}
	numThreads := settings.Int("num_threads")
	if numThreads < 1 {
		return 0, configErr(f.name, "num_threads", "must be a positive integer")
	}
	return numThreads, nil
}

func (f *Flow[R]) bindMode(raw map[string]any, name string) (Mode, error) {
	v, ok := raw[name+"-mode"]
	if !ok {
		return "", configErr(name, name+"-mode", "missing required key")
	}
	return parseMode(name, v)
}

func nestedConfig(raw map[string]any, name string) (map[string]any, error) {
	v, ok := raw[name]
	if !ok {
		return nil, configErr(name, name, "missing config block")
	}
	block, ok := v.(map[string]any)
	if !ok {
		return nil, configErr(name, name, "config block is not a mapping")
	}
	return block, nil
}

func bindGraphDefs[R any, S Step](
	raw map[string]any,
	modes map[string]Mode,
	defs []namedGraphDef[S],
	adapt func(S) func(*StepContext, []*Locked[R]) error,
) ([]phaseStep[R], error) {
	var steps []phaseStep[R]
	for _, d := range defs {
		stepRaw, err := nestedConfig(raw, d.name)
		if err != nil {
			return nil, err
		}
		step, err := buildStep(d.name, d.spec, d.ctor, stepRaw)
		if err != nil {
			return nil, err
		}
		steps = append(steps, phaseStep[R]{
			name: d.name,
			deps: d.deps,
			mode: modes[d.name],
			run:  adapt(step),
		})
	}
	return steps, nil
}

func (f *Flow[R]) stepContext(name string) *StepContext {
	return &StepContext{
		log:   f.logger.stepLog(name),
		meta:  f.meta,
		debug: f.modes[name] == ModeDebug,
	}
}

// Run executes one pipeline cycle: fetch records, run record steps
// sequentially, run the update and propagate phases on the worker pool,
// and store the records back. Fetch, record-step, and store failures abort
// the cycle; the next scheduled invocation retries it as a whole.
func (f *Flow[R]) Run() error {
	if !f.configured {
		return configErr(f.name, "", "flow is not configured")
	}
	f.meta.reset()

	log := f.logger.flowLog()
	runID := uuid.NewString()
	log.Info().
		Str("run_id", runID).
		Int("num_threads", f.numThreads).
		Time("started", time.Now()).
		Msg("flow run starting")

	log.Info().Str("storer", f.storerName).Msg("getting records")
	records, err := f.storer.GetRecords(f.stepContext(f.storerName))
	if err != nil {
		return fmt.Errorf("flow %s: get records: %w", f.name, err)
	}

	log.Info().Msg("running record steps")
	for _, rs := range f.recordSteps {
		if f.modes[rs.name] == ModeExclude {
			continue
		}
		records, err = rs.step.NewRecords(f.stepContext(rs.name), records)
		if err != nil {
			return fmt.Errorf("flow %s: record step %s: %w", f.name, rs.name, err)
		}
	}

	locked := lockRecords(records)

	log.Info().Msg("running update steps")
	if err := f.runPhase("update", f.updateSteps, locked); err != nil {
		return err
	}

	log.Info().Msg("running propagate steps")
	if err := f.runPhase("propagate", f.propagateSteps, locked); err != nil {
		return err
	}

	records = unlockRecords(locked)
	log.Info().Str("storer", f.storerName).Msg("storing records")
	if err := f.storer.SetRecords(f.stepContext(f.storerName), records); err != nil {
		return fmt.Errorf("flow %s: set records: %w", f.name, err)
	}

	log.Info().Str("run_id", runID).Msg("flow finished successfully")
	return nil
}
