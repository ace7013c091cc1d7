package patterns

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher decides which paths the agent should stay quiet about.
type Matcher struct {
	ignore []glob.Glob
}

// NewMatcher compiles the ignore patterns. Blank lines and #-comments
// are skipped so the list can come straight from a config file.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(pattern))
		if err != nil {
			return nil, err
		}
		m.ignore = append(m.ignore, g)
	}
	return m, nil
}

// IsIgnored reports whether path matches any ignore pattern, either by
// full path or by base name.
func (m *Matcher) IsIgnored(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(slashed)
	for _, g := range m.ignore {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}
