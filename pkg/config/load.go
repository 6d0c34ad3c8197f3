package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("config file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrEmptyFile        = errors.New("config file is empty")
)

// Defaults applied by Parse.
const (
	DefaultListen      = ":8890"
	DefaultMetricsPath = "/metrics"
)

// DiscoveryOrder is the priority order for finding a config file in
// the working directory.
var DiscoveryOrder = []string{
	"intercept.yaml",
	"intercept.yml",
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load reads, validates, and fully resolves a config file. Route files
// referenced by glob are resolved relative to the config file's
// directory and merged after the inline routes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.mergeRouteFiles(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates and decodes a config document. Environment variable
// references are expanded first; the document is then checked against
// the config schema before decoding, defaults are applied, and the
// predicates are compiled. Route file globs are left for Load, which
// knows the base directory.
func Parse(data []byte) (*Config, error) {
	expanded := ExpandEnvVars(string(data))

	var doc any
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result := &ValidationResult{}
	if err := validateSchema(doc, result); err != nil {
		return nil, err
	}
	if !result.IsValid() {
		return nil, result
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.applyDefaults()

	cfg.validate(result)
	if !result.IsValid() {
		return nil, result
	}

	for i, src := range cfg.Predicates {
		p, err := CompilePredicate(src)
		if err != nil {
			return nil, fmt.Errorf("predicates[%d]: %w", i, err)
		}
		cfg.compiled = append(cfg.compiled, p)
	}

	return &cfg, nil
}

// Discover finds a config file via the INTERCEPT_CONFIG environment
// variable or the discovery order in the working directory.
func Discover() (string, error) {
	if envPath := os.Getenv("INTERCEPT_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("INTERCEPT_CONFIG points to a missing file: %s", envPath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	for _, name := range DiscoveryOrder {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no config found; run 'intercept init' to create one, or pass --config")
}

// ExpandEnvVars expands ${VAR_NAME} and ${VAR_NAME:-default}
// references in the input.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// CompiledPredicates returns the predicate programs compiled by Parse,
// in config order.
func (c *Config) CompiledPredicates() []*Predicate {
	return slices.Clone(c.compiled)
}

// applyDefaults fills the fields Parse defaults.
func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Unhandled == "" {
		c.Unhandled = UnhandledBypass
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
