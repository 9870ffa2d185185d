package parser

import (
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Filter selects which operations end up in the skill document
type Filter struct {
	// IncludeTags keeps only these grouping keys. When set, ExcludeTags is ignored.
	IncludeTags []string
	// ExcludeTags drops these grouping keys
	ExcludeTags []string
	// ExcludeDeprecated skips operations marked deprecated
	ExcludeDeprecated bool
	// ExcludePaths drops whole path entries matching any pattern
	ExcludePaths []PathPattern
}

// PathPattern matches a path template such as "/users/{id}".
// *regexp.Regexp satisfies it directly.
type PathPattern interface {
	MatchString(path string) bool
}

var _ PathPattern = (*regexp.Regexp)(nil)

// PrefixPattern matches a path equal to it or starting with it. The prefix is
// a raw string prefix, so "/internal" also matches "/internal-tools".
type PrefixPattern string

// MatchString implements PathPattern
func (p PrefixPattern) MatchString(path string) bool {
	return path == string(p) || strings.HasPrefix(path, string(p))
}

// GlobPattern matches paths with doublestar syntax, e.g. "/admin/**"
type GlobPattern struct {
	pattern string
}

// NewGlobPattern validates a doublestar pattern
func NewGlobPattern(pattern string) (GlobPattern, error) {
	if !doublestar.ValidatePattern(pattern) {
		return GlobPattern{}, errors.Errorf("invalid path glob %q", pattern)
	}
	return GlobPattern{pattern: pattern}, nil
}

// MatchString implements PathPattern
func (g GlobPattern) MatchString(path string) bool {
	ok, err := doublestar.Match(g.pattern, path)
	return err == nil && ok
}

// String returns the glob source
func (g GlobPattern) String() string {
	return g.pattern
}

// PrefixPatterns converts plain strings into prefix patterns
func PrefixPatterns(prefixes ...string) []PathPattern {
	out := make([]PathPattern, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, PrefixPattern(p))
	}
	return out
}

// RegexPatterns compiles regular expressions into path patterns
func RegexPatterns(exprs ...string) ([]PathPattern, error) {
	out := make([]PathPattern, 0, len(exprs))
	for _, e := range exprs {
		r, err := regexp.Compile(e)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid excludePaths pattern %q", e)
		}
		out = append(out, r)
	}
	return out, nil
}

// GlobPatterns validates doublestar globs into path patterns
func GlobPatterns(globs ...string) ([]PathPattern, error) {
	out := make([]PathPattern, 0, len(globs))
	for _, g := range globs {
		p, err := NewGlobPattern(g)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// isPathExcluded reports whether any exclusion pattern matches path
func isPathExcluded(path string, filter Filter) bool {
	for _, p := range filter.ExcludePaths {
		if p != nil && p.MatchString(path) {
			return true
		}
	}
	return false
}

// isTagIncluded applies the tag filter to one grouping key. A non-empty
// include list takes precedence and the exclude list is then ignored.
func isTagIncluded(tag string, filter Filter) bool {
	if len(filter.IncludeTags) > 0 {
		return slices.Contains(filter.IncludeTags, tag)
	}
	if len(filter.ExcludeTags) > 0 {
		return !slices.Contains(filter.ExcludeTags, tag)
	}
	return true
}
