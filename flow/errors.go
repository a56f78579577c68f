package flow

import "fmt"

// ConfigError reports missing, mistyped, or duplicate configuration or
// registration. It is always fatal before any record is fetched.
type ConfigError struct {
	// Step is the step (or storer, or flow) the error refers to.
	Step string
	// Key is the offending configuration key, if any.
	Key string
	// Reason is a human-readable explanation.
	Reason string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the string representation of the error.
func (e *ConfigError) Error() string {
	msg := "flow: config"
	if e.Step != "" {
		msg += fmt.Sprintf(" [%s]", e.Step)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" key %q", e.Key)
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *ConfigError) Unwrap() error { return e.Cause }

// ValidationError reports that a step's Validate hook rejected an unsafe
// or impossible configuration against live external state. It is fatal
// before any record is fetched.
type ValidationError struct {
	// Step is the step whose Validate hook failed.
	Step string
	// Reason is a human-readable explanation.
	Reason string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the string representation of the error.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("flow: validate [%s]: %s", e.Step, e.Reason)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *ValidationError) Unwrap() error { return e.Cause }

func configErr(step, key, reason string) *ConfigError {
	return &ConfigError{Step: step, Key: key, Reason: reason}
}
