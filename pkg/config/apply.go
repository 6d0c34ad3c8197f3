package config

import (
	"context"
	"fmt"

	"github.com/getmockd/intercept/pkg/bridge"
	"github.com/getmockd/intercept/pkg/mock"
)

// Apply registers the configured routes, passthrough rules, and
// predicates on the bridge, in config order.
func (c *Config) Apply(b *bridge.Bridge) error {
	for i, rt := range c.Routes {
		var opts []bridge.RouteOption
		if rt.Status != 0 {
			opts = append(opts, bridge.WithCode(rt.Status))
		}
		if rt.Timing > 0 {
			opts = append(opts, bridge.WithRouteTiming(rt.Timing.Std()))
		}
		if len(rt.Headers) > 0 {
			opts = append(opts, bridge.WithRouteHeaders(rt.Headers))
		}
		if err := b.Handle(rt.Verb, rt.Path, staticHandler(rt.Body), opts...); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
	}

	for i, rule := range c.Passthrough {
		if err := b.PassthroughVerbs(rule.Verbs, rule.URL); err != nil {
			return fmt.Errorf("passthrough[%d]: %w", i, err)
		}
	}

	for _, p := range c.compiled {
		b.PassthroughFunc(p.Match)
	}
	return nil
}

// staticHandler answers every invocation with the configured body.
func staticHandler(body any) mock.Handler {
	return func(context.Context, *mock.Request) (any, error) {
		return body, nil
	}
}
