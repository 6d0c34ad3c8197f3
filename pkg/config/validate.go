package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError is a single config validation finding.
type ValidationError struct {
	Path    string // config path, e.g. "routes[0].verb"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult collects every finding for a config document.
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid reports whether the document passed.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error joins all findings, one per line.
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// AddError records a finding.
func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// validate runs the structural checks the schema cannot express.
func (c *Config) validate(result *ValidationResult) {
	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			result.AddError("listen", fmt.Sprintf("invalid listen address %q", c.Listen))
		}
	}

	if c.Origin != "" {
		u, err := url.Parse(c.Origin)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			result.AddError("origin", fmt.Sprintf("must be an http or https origin, got %q", c.Origin))
		}
	}

	// The root path is where the proxy itself is mounted.
	if c.Metrics.Enabled && c.Metrics.Path == "/" {
		result.AddError("metrics.path", "cannot be the root path")
	}

	for i, rt := range c.Routes {
		if strings.TrimSpace(rt.Verb) == "" {
			result.AddError(fmt.Sprintf("routes[%d].verb", i), "required")
		}
		if strings.TrimSpace(rt.Path) == "" {
			result.AddError(fmt.Sprintf("routes[%d].path", i), "required")
		}
	}

	for i, rule := range c.Passthrough {
		if strings.TrimSpace(rule.URL) == "" {
			result.AddError(fmt.Sprintf("passthrough[%d].url", i), "required")
		}
		for j, verb := range rule.Verbs {
			if strings.TrimSpace(verb) == "" {
				result.AddError(fmt.Sprintf("passthrough[%d].verbs[%d]", i, j), "cannot be empty")
			}
		}
	}
}
