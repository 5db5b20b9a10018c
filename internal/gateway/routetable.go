package gateway

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
)

// Auth levels a route may require, ordered: a caller holding a higher role
// satisfies every lower requirement
type AuthLevel int

const (
	AuthNone AuthLevel = iota
	AuthCustomer
	AuthBusiness
	AuthStaff
)

// Route declares one logical operation: method + path pattern mapped to a
// handler with its policy. Patterns are made of fixed segments, single
// segment captures ('{name}') and an optional trailing '*' catch-all.
type Route struct {
	Method    string
	Pattern   string
	Auth      AuthLevel
	RateClass string
	Handler   http.Handler
}

type segment struct {
	literal string
	param   string // capture name, empty for a literal segment
}

type compiledRoute struct {
	Route

	segments []segment
	catchAll bool
}

// Table is the process-wide route table: built once, read-only after that.
// Matching iterates entries in declaration order, first match wins, so more
// specific patterns must be declared before wildcard ones
type Table struct {
	routes []compiledRoute
}

func NewTable(routes []Route) (*Table, error) {
	t := &Table{routes: make([]compiledRoute, 0, len(routes))}

	for _, route := range routes {
		compiled, err := compileRoute(route)
		if err != nil {
			return nil, fmt.Errorf("route %s %s: %w", route.Method, route.Pattern, err)
		}

		t.routes = append(t.routes, compiled)
	}

	return t, nil
}

func compileRoute(route Route) (compiledRoute, error) {
	compiled := compiledRoute{Route: route}

	if route.Method == "" || route.Method != strings.ToUpper(route.Method) {
		return compiled, fmt.Errorf("method must be uppercase, got %q", route.Method)
	}
	if route.Handler == nil {
		return compiled, fmt.Errorf("handler must not be nil")
	}
	if !strings.HasPrefix(route.Pattern, "/") {
		return compiled, fmt.Errorf("pattern must start with '/'")
	}

	parts := strings.Split(strings.TrimPrefix(route.Pattern, "/"), "/")
	seen := map[string]bool{}

	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return compiled, fmt.Errorf("'*' is allowed as the last segment only")
			}
			compiled.catchAll = true

		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			name := part[1 : len(part)-1]
			if name == "" {
				return compiled, fmt.Errorf("empty capture name")
			}
			if seen[name] {
				return compiled, fmt.Errorf("duplicate capture name %q", name)
			}
			seen[name] = true
			compiled.segments = append(compiled.segments, segment{param: name})

		case strings.ContainsAny(part, "{}*"):
			return compiled, fmt.Errorf("malformed segment %q", part)

		case part == "" && len(parts) > 1:
			return compiled, fmt.Errorf("empty segment in pattern")

		default:
			compiled.segments = append(compiled.segments, segment{literal: part})
		}
	}

	return compiled, nil
}

// Match describes the winning route entry for a request
type Match struct {
	Pattern   string
	Auth      AuthLevel
	RateClass string
	Handler   http.Handler
	Params    map[string]string
}

// MethodNotAllowedError lists the methods that do match the path
type MethodNotAllowedError struct {
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("%v, allowed: %s", apperrors.ErrMethodNotAllowed, strings.Join(e.Allowed, ", "))
}

func (e *MethodNotAllowedError) Unwrap() error {
	return apperrors.ErrMethodNotAllowed
}

// Match finds the first entry whose method and pattern match.
// Path matches with a different method produce MethodNotAllowedError naming
// every method declared for the path. No path match at all means
// apperrors.ErrRouteNotFound
func (t *Table) Match(method string, path string) (Match, error) {
	pathParts := splitPath(path)

	var allowed []string
	for _, route := range t.routes {
		params, ok := route.match(pathParts)
		if !ok {
			continue
		}

		if route.Method == method {
			return Match{
				Pattern:   route.Pattern,
				Auth:      route.Auth,
				RateClass: route.RateClass,
				Handler:   route.Handler,
				Params:    params,
			}, nil
		}

		if !slices.Contains(allowed, route.Method) {
			allowed = append(allowed, route.Method)
		}
	}

	if len(allowed) > 0 {
		return Match{}, &MethodNotAllowedError{Allowed: allowed}
	}

	return Match{}, apperrors.ErrRouteNotFound
}

func (r *compiledRoute) match(pathParts []string) (map[string]string, bool) {
	switch {
	case r.catchAll && len(pathParts) < len(r.segments):
		return nil, false
	case !r.catchAll && len(pathParts) != len(r.segments):
		return nil, false
	}

	var params map[string]string
	for i, seg := range r.segments {
		switch {
		case seg.param != "":
			if pathParts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.param] = pathParts[i]

		case seg.literal != pathParts[i]:
			return nil, false
		}
	}

	return params, true
}

func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	return strings.Split(path, "/")
}
