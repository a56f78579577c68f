// Package config loads flow configuration documents.
//
// Configurations are nested YAML: flow-level settings, a "<name>-mode"
// key per step and storer, and a "<name>" block per step and storer
// matching its declared config schema. A .env file next to the config
// file, if present, is loaded into the environment first so documents can
// reference secrets indirectly.
package config
