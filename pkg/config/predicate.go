package config

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/getmockd/intercept/pkg/engine"
)

// Predicate is a compiled request predicate.
//
// The expression sees the raw intercepted request through these
// identifiers:
//
//	method            HTTP method, upper case
//	host              request host (with port when present)
//	path              URL path
//	url               full URL
//	body              raw body as a string
//	header(name)      first value of a header, "" when absent
//	query(name)       first value of a query parameter, "" when absent
//	jsonpath(expr)    JSONPath result against the JSON body
//
// jsonpath returns the single match, a slice for multiple matches, or
// nil for no match or a non-JSON body.
type Predicate struct {
	// Source is the expression the predicate was compiled from.
	Source string

	program *vm.Program

	mu    sync.RWMutex
	paths map[string]jp.Expr
}

// CompilePredicate compiles an expr source string into a Predicate.
func CompilePredicate(source string) (*Predicate, error) {
	p := &Predicate{
		Source: source,
		paths:  make(map[string]jp.Expr),
	}
	program, err := expr.Compile(source, expr.Env(p.env(nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	p.program = program
	return p, nil
}

// Match reports whether the request satisfies the predicate. An
// evaluation failure or non-boolean result counts as no match.
func (p *Predicate) Match(req *engine.Request) bool {
	out, err := expr.Run(p.program, p.env(req))
	if err != nil {
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}

// env builds an evaluation environment for req. A nil request yields
// the typed skeleton used at compile time.
func (p *Predicate) env(req *engine.Request) map[string]any {
	env := map[string]any{
		"method":   "",
		"host":     "",
		"path":     "",
		"url":      "",
		"body":     "",
		"header":   func(string) string { return "" },
		"query":    func(string) string { return "" },
		"jsonpath": func(string) any { return nil },
	}
	if req == nil {
		return env
	}

	env["method"] = req.Method
	env["host"] = req.Host()
	if req.URL != nil {
		env["path"] = req.URL.Path
		env["url"] = req.URL.String()
	}
	env["body"] = string(req.Body)
	env["header"] = func(name string) string {
		if req.Header == nil {
			return ""
		}
		return req.Header.Get(name)
	}
	env["query"] = func(name string) string {
		if req.URL == nil {
			return ""
		}
		return req.URL.Query().Get(name)
	}
	env["jsonpath"] = func(path string) any {
		return p.jsonPath(path, req.Body)
	}
	return env
}

// jsonPath evaluates a JSONPath expression against the body.
func (p *Predicate) jsonPath(path string, body []byte) any {
	if len(body) == 0 {
		return nil
	}
	x, err := p.parsePath(path)
	if err != nil {
		return nil
	}
	doc, err := oj.Parse(body)
	if err != nil {
		return nil
	}
	results := x.Get(doc)
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	default:
		return results
	}
}

// parsePath parses a JSONPath expression, caching the result.
func (p *Predicate) parsePath(path string) (jp.Expr, error) {
	p.mu.RLock()
	x, ok := p.paths[path]
	p.mu.RUnlock()
	if ok {
		return x, nil
	}

	parsed, err := jp.ParseString(path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.paths[path] = parsed
	p.mu.Unlock()
	return parsed, nil
}
