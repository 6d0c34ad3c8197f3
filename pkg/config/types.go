package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root structure of an intercept.yaml file.
type Config struct {
	// Listen is the address the proxy listens on (default ":8890").
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"`

	// Origin is the origin relative routes and passthrough rules
	// resolve against. Empty uses the bridge default.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`

	// URLPrefix is prepended to every route path. It may carry a full
	// origin such as "http://api.example.com".
	URLPrefix string `json:"urlPrefix,omitempty" yaml:"urlPrefix,omitempty"`

	// Namespace is joined between the prefix and every route path.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Timing delays every mocked response. Routes can override it.
	Timing Duration `json:"timing,omitempty" yaml:"timing,omitempty"`

	// Unhandled picks the fate of requests nothing claims: "bypass"
	// forwards them upstream, "block" answers 404. Default "bypass".
	Unhandled string `json:"unhandled,omitempty" yaml:"unhandled,omitempty"`

	// Logging configures the process logger.
	Logging Logging `json:"logging,omitempty" yaml:"logging,omitempty"`

	// Metrics configures the Prometheus endpoint.
	Metrics Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Routes are the mocked endpoints, matched in listed order.
	Routes []Route `json:"routes,omitempty" yaml:"routes,omitempty"`

	// RouteFiles are glob patterns (with ** support) naming YAML files
	// of additional routes, merged after the inline ones in sorted
	// path order.
	RouteFiles []string `json:"routeFiles,omitempty" yaml:"routeFiles,omitempty"`

	// Passthrough opens parts of the real network to unmatched
	// requests.
	Passthrough []PassthroughRule `json:"passthrough,omitempty" yaml:"passthrough,omitempty"`

	// Predicates are expr source strings; an unmatched request any of
	// them accepts passes through.
	Predicates []string `json:"predicates,omitempty" yaml:"predicates,omitempty"`

	// compiled predicate programs, populated by Parse.
	compiled []*Predicate
}

// Logging configures the process logger.
type Logging struct {
	// Level is debug, info, warn, or error (default "info").
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json (default "text").
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// Enabled turns the endpoint on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Path is where the endpoint is served (default "/metrics").
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Route is one mocked endpoint.
type Route struct {
	// Verb is the HTTP method, in any case. "del" is accepted for
	// DELETE.
	Verb string `json:"verb" yaml:"verb"`

	// Path is the route path, resolved against the configured prefix
	// and namespace.
	Path string `json:"path" yaml:"path"`

	// Status is the response code. Zero picks the default for the
	// verb.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`

	// Headers are stamped onto every reply from the route.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Body is the response body. Mappings and sequences are served as
	// JSON, strings as-is.
	Body any `json:"body,omitempty" yaml:"body,omitempty"`

	// Timing overrides the config-wide response delay.
	Timing Duration `json:"timing,omitempty" yaml:"timing,omitempty"`
}

// PassthroughRule opens a URL pattern to unmatched requests.
type PassthroughRule struct {
	// URL is the pattern, relative to the origin or absolute.
	URL string `json:"url" yaml:"url"`

	// Verbs limits the rule to the listed methods. Empty inherits the
	// registry defaults for the host and path.
	Verbs []string `json:"verbs,omitempty" yaml:"verbs,omitempty"`
}

// Unhandled policy values.
const (
	UnhandledBypass = "bypass"
	UnhandledBlock  = "block"
)

// Duration is a response delay. YAML values may be Go duration strings
// ("150ms") or bare integers, read as milliseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var ms int64
	if err := node.Decode(&ms); err == nil {
		if ms < 0 {
			return fmt.Errorf("negative timing: %d", ms)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return errors.New("timing must be a duration string or integer milliseconds")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid timing %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative timing: %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
