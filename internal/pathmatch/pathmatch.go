// Package pathmatch compiles route path patterns and matches request paths
// against them. Patterns are literal segments plus {name} placeholders that
// capture exactly one segment; there are no wildcard segments, so matching
// is deterministic and linear in the number of path segments.
package pathmatch

import (
	"fmt"
	"strings"
)

type segment struct {
	literal string
	param   string
}

// Pattern is a compiled path pattern.
type Pattern struct {
	raw      string
	segments []segment
	literal  bool
}

// Compile parses a pattern like /widgets/{id}/parts into a matcher.
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" || !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("pattern %q must begin with /", pattern)
	}
	if strings.Contains(pattern, "*") {
		return nil, fmt.Errorf("pattern %q: wildcard segments are not supported", pattern)
	}

	p := &Pattern{raw: pattern, literal: true}
	if pattern == "/" {
		return p, nil
	}

	seen := map[string]bool{}
	for _, part := range strings.Split(strings.TrimPrefix(pattern, "/"), "/") {
		if part == "" {
			return nil, fmt.Errorf("pattern %q contains an empty segment", pattern)
		}
		if strings.HasPrefix(part, "{") || strings.HasSuffix(part, "}") {
			name := strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}")
			if !strings.HasPrefix(part, "{") || !strings.HasSuffix(part, "}") || name == "" {
				return nil, fmt.Errorf("pattern %q: malformed parameter segment %q", pattern, part)
			}
			if strings.ContainsAny(name, "{}/") {
				return nil, fmt.Errorf("pattern %q: malformed parameter name %q", pattern, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("pattern %q: duplicate parameter %q", pattern, name)
			}
			seen[name] = true
			p.segments = append(p.segments, segment{param: name})
			p.literal = false
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return nil, fmt.Errorf("pattern %q: malformed segment %q", pattern, part)
		}
		p.segments = append(p.segments, segment{literal: part})
	}

	return p, nil
}

// Match tests a request path against the pattern and extracts named
// parameters. The params map is nil when the path does not match.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	if path == "/" || path == "" {
		if len(p.segments) == 0 {
			return map[string]string{}, true
		}
		return nil, false
	}

	parts := strings.Split(strings.TrimPrefix(strings.TrimSuffix(path, "/"), "/"), "/")
	if len(parts) != len(p.segments) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range p.segments {
		if seg.param != "" {
			if parts[i] == "" {
				return nil, false
			}
			params[seg.param] = parts[i]
			continue
		}
		if seg.literal != parts[i] {
			return nil, false
		}
	}
	return params, true
}

// IsLiteral reports whether the pattern contains no parameter segments.
// A fully literal match always wins over a parameterized match.
func (p *Pattern) IsLiteral() bool {
	return p.literal
}

// String returns the original pattern text.
func (p *Pattern) String() string {
	return p.raw
}

// Overlaps reports whether two patterns can match the same path. Overlap
// between two parameterized patterns is ambiguous and must be rejected at
// registration time; overlap between a literal and a parameterized pattern
// is resolved by the literal-wins tie-break.
func Overlaps(a, b *Pattern) bool {
	if len(a.segments) != len(b.segments) {
		return false
	}
	for i := range a.segments {
		as, bs := a.segments[i], b.segments[i]
		if as.param != "" || bs.param != "" {
			continue
		}
		if as.literal != bs.literal {
			return false
		}
	}
	return true
}
