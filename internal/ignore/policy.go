package ignore

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultHiddenPrefix marks hidden entries ("dotfiles")
const DefaultHiddenPrefix = "."

// DefaultDirs are directory names that are never descended into:
// version control metadata, dependency trees, caches and virtual environments.
var DefaultDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor", "bower_components",
	"__pycache__", ".pytest_cache", ".mypy_cache", ".tox",
	".venv", "venv", "env",
	".idea", ".vscode",
	"dist", "build", "target", ".gradle", ".cache",
}

type rule struct {
	pattern string
	negated bool
	dirOnly bool
}

// Policy decides which entries are excluded from traversal. It is built once
// and only read afterwards, so it is safe for concurrent use.
type Policy struct {
	dirs         map[string]struct{}
	hiddenPrefix string
	rules        []rule
}

// Option configures a Policy
type Option func(*Policy)

// WithHiddenPrefix overrides the hidden marker. An empty prefix disables hidden-entry skipping.
func WithHiddenPrefix(prefix string) Option {
	return func(p *Policy) {
		p.hiddenPrefix = prefix
	}
}

// WithoutDefaults drops the built-in directory list
func WithoutDefaults() Option {
	return func(p *Policy) {
		p.dirs = map[string]struct{}{}
	}
}

// New builds a policy from user patterns. Patterns are doublestar globs matched
// against the entry name; a trailing "/" limits a pattern to directories and a
// leading "!" re-includes what an earlier rule excluded. Last matching rule wins.
func New(patterns []string, opts ...Option) (*Policy, error) {
	p := &Policy{
		dirs:         make(map[string]struct{}, len(DefaultDirs)),
		hiddenPrefix: DefaultHiddenPrefix,
	}
	for _, d := range DefaultDirs {
		p.dirs[d] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, line := range patterns {
		r, ok, err := parseRule(line)
		if err != nil {
			return nil, err
		}
		if ok {
			p.rules = append(p.rules, r)
		}
	}
	return p, nil
}

// Default returns the policy with only the built-in exclusions
func Default() *Policy {
	p, _ := New(nil)
	return p
}

// ShouldSkip reports whether an entry with the given base name is excluded
func (p *Policy) ShouldSkip(name string, isDir bool) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	skip := false
	if isDir {
		if _, ok := p.dirs[name]; ok {
			skip = true
		}
	}
	if p.hiddenPrefix != "" && strings.HasPrefix(name, p.hiddenPrefix) {
		skip = true
	}

	for _, r := range p.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(r.pattern, name); ok {
			skip = !r.negated
		}
	}
	return skip
}

// Patterns returns the effective rule list in evaluation order, for display
func (p *Policy) Patterns() []string {
	out := make([]string, 0, len(p.dirs)+len(p.rules)+1)
	for _, d := range DefaultDirs {
		if _, ok := p.dirs[d]; ok {
			out = append(out, d+"/")
		}
	}
	if p.hiddenPrefix != "" {
		out = append(out, p.hiddenPrefix+"*")
	}
	for _, r := range p.rules {
		s := r.pattern
		if r.dirOnly {
			s += "/"
		}
		if r.negated {
			s = "!" + s
		}
		out = append(out, s)
	}
	return out
}

func parseRule(line string) (rule, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false, nil
	}

	r := rule{}
	if strings.HasPrefix(line, "!") {
		r.negated = true
		line = strings.TrimPrefix(line, "!")
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return rule{}, false, nil
	}
	if !doublestar.ValidatePattern(line) {
		return rule{}, false, fmt.Errorf("invalid ignore pattern %q", line)
	}
	r.pattern = line
	return r, true, nil
}
