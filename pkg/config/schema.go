package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema is the JSON Schema every config document is checked
// against before decoding. Validation runs on the YAML-decoded generic
// document, so schema errors point at the offending field instead of
// surfacing as a Go type mismatch.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "listen": {"type": "string"},
    "origin": {"type": "string"},
    "urlPrefix": {"type": "string"},
    "namespace": {"type": "string"},
    "timing": {"type": ["string", "integer"]},
    "unhandled": {"enum": ["bypass", "block"]},
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "error"]},
        "format": {"enum": ["text", "json"]}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "path": {"type": "string", "pattern": "^/"}
      }
    },
    "routes": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["verb", "path"],
        "properties": {
          "verb": {"type": "string", "minLength": 1},
          "path": {"type": "string", "minLength": 1},
          "status": {"type": "integer", "minimum": 100, "maximum": 599},
          "headers": {"type": "object", "additionalProperties": {"type": "string"}},
          "body": {},
          "timing": {"type": ["string", "integer"]}
        }
      }
    },
    "routeFiles": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "passthrough": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["url"],
        "properties": {
          "url": {"type": "string", "minLength": 1},
          "verbs": {"type": "array", "items": {"type": "string", "minLength": 1}}
        }
      }
    },
    "predicates": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaCompile  error
)

// schema compiles configSchema on first use.
func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("intercept.schema.json", strings.NewReader(configSchema)); err != nil {
			schemaCompile = err
			return
		}
		compiledSchema, schemaCompile = compiler.Compile("intercept.schema.json")
	})
	return compiledSchema, schemaCompile
}

// validateSchema checks the YAML-decoded generic document against the
// config schema, translating violations into path-qualified entries on
// the result.
func validateSchema(doc any, result *ValidationResult) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	err = s.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	collectSchemaErrors(ve, result)
	return nil
}

// collectSchemaErrors walks a validation error tree, keeping leaves.
func collectSchemaErrors(err *jsonschema.ValidationError, result *ValidationResult) {
	if len(err.Causes) == 0 {
		result.AddError(pointerToPath(err.InstanceLocation), err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// pointerToPath rewrites a JSON Pointer like "/routes/0/verb" into the
// breadcrumb form "routes[0].verb" used by validation messages.
func pointerToPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return ""
	}
	var b strings.Builder
	for i, seg := range strings.Split(pointer, "/") {
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(seg)
	}
	return b.String()
}
