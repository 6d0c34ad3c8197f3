// Package config loads and validates intercept.yaml files.
//
// A config file describes one standalone interception setup: where to
// listen, how route paths resolve, the mocked routes themselves, the
// passthrough rules, and optional request predicates. Load reads a
// file, expands ${ENV_VAR} references, checks the document against a
// JSON Schema, applies defaults, compiles the predicates, and merges
// any referenced route files.
//
// A loaded Config is applied to a bridge with Apply; the scalar fields
// (listen address, logging, metrics) are read directly by the caller
// assembling the process.
package config
