package flow

import (
	"fmt"
	"strings"
	"time"
)

// ConfigType enumerates the primitive types a config key may declare.
type ConfigType int

const (
	TypeInt ConfigType = iota
	TypeBool
	TypeString
	TypeTime
)

// String returns the type name used in config templates and errors.
func (t ConfigType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeTime:
		return "time"
	default:
		return "unknown"
	}
}

// ConfigKey declares one entry of a step's config schema.
type ConfigKey struct {
	// Name is the key as it appears in the configuration document.
	Name string
	// Type is the primitive type the value must have.
	Type ConfigType
	// Description is the human-readable help text for the key.
	Description string
}

// Settings is the statically-shaped, immutable configuration bound for one
// step. Every declared key is guaranteed present with its declared type.
type Settings struct {
	values map[string]any
}

// Has reports whether a key was bound.
func (s Settings) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Int returns the int value for name, or 0 if name was not declared.
func (s Settings) Int(name string) int {
	v, _ := s.values[name].(int)
	return v
}

// Bool returns the bool value for name, or false if name was not declared.
func (s Settings) Bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

// String returns the string value for name, or "" if name was not declared.
func (s Settings) String(name string) string {
	v, _ := s.values[name].(string)
	return v
}

// Time returns the time value for name, or the zero time if name was not
// declared.
func (s Settings) Time(name string) time.Time {
	v, _ := s.values[name].(time.Time)
	return v
}

// NewSettings binds raw values against the declared keys without going
// through a Flow. Useful for constructing steps directly.
func NewSettings(keys []ConfigKey, raw map[string]any) (Settings, error) {
	return bindSettings("settings", keys, raw)
}

// reservedPrefix marks keys that the engine ignores when binding, so that
// config documents can carry annotations (e.g. "_description") without
// tripping schema checks.
const reservedPrefix = "_"

// bindSettings checks that every declared key is present in raw with the
// declared primitive type and returns the bound Settings. Keys with the
// reserved prefix are dropped before binding.
func bindSettings(stepName string, keys []ConfigKey, raw map[string]any) (Settings, error) {
	bound := make(map[string]any, len(keys))
	for _, key := range keys {
		v, ok := raw[key.Name]
		if !ok {
			return Settings{}, configErr(stepName, key.Name, "missing required key")
		}
		coerced, ok := coerceValue(key.Type, v)
		if !ok {
			return Settings{}, configErr(stepName, key.Name,
				fmt.Sprintf("value %v is not of type %s", v, key.Type))
		}
		if strings.HasPrefix(key.Name, reservedPrefix) {
			return Settings{}, configErr(stepName, key.Name, "declared key uses the reserved prefix")
		}
		bound[key.Name] = coerced
	}
	return Settings{values: bound}, nil
}

// coerceValue normalizes a raw config value to the declared type. YAML and
// viper hand integers back as int or int64 and timestamps as time.Time or
// RFC 3339 strings, so those forms are accepted.
func coerceValue(t ConfigType, v any) (any, bool) {
	switch t {
	case TypeInt:
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			return b, true
		}
	case TypeString:
		if s, ok := v.(string); ok {
			return s, true
		}
	case TypeTime:
		switch ts := v.(type) {
		case time.Time:
			return ts, true
		case string:
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				return parsed, true
			}
		}
	}
	return nil, false
}
