package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// routeFileContent accepts either a bare YAML list of routes or a
// mapping with a routes key.
type routeFileContent struct {
	Routes []Route `yaml:"routes"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *routeFileContent) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&c.Routes)
	}
	type alias routeFileContent
	return node.Decode((*alias)(c))
}

// mergeRouteFiles expands the routeFiles globs against baseDir and
// appends the loaded routes after the inline ones. Matches load in
// sorted path order so registration order is deterministic.
func (c *Config) mergeRouteFiles(baseDir string) error {
	for i, pattern := range c.RouteFiles {
		matches, err := expandGlob(resolvePath(baseDir, pattern))
		if err != nil {
			return fmt.Errorf("routeFiles[%d]: expanding glob %q: %w", i, pattern, err)
		}
		sort.Strings(matches)

		for _, match := range matches {
			routes, err := loadRouteFile(match)
			if err != nil {
				return fmt.Errorf("routeFiles[%d]: %w", i, err)
			}
			c.Routes = append(c.Routes, routes...)
		}
	}
	return nil
}

// loadRouteFile reads one YAML route file.
func loadRouteFile(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	expanded := ExpandEnvVars(string(data))

	var content routeFileContent
	if err := yaml.Unmarshal([]byte(expanded), &content); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for i, rt := range content.Routes {
		if strings.TrimSpace(rt.Verb) == "" || strings.TrimSpace(rt.Path) == "" {
			return nil, fmt.Errorf("%s: routes[%d]: verb and path are required", path, i)
		}
	}
	return content.Routes, nil
}

// expandGlob expands a glob pattern, using doublestar when the pattern
// needs ** support.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// resolvePath resolves a possibly relative path against a base
// directory.
func resolvePath(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
