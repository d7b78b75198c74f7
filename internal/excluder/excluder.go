package excluder

import (
	"path/filepath"

	"github.com/gobwas/glob"
)

// Excluder matches file paths against a list of glob patterns.
type Excluder struct {
	globs []glob.Glob
}

// New creates an Excluder from a list of glob patterns.
// Patterns use '/' as the path separator.
func New(patterns []string) (*Excluder, error) {
	var globs []glob.Glob
	for _, pat := range patterns {
		g, err := glob.Compile(pat, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return &Excluder{globs: globs}, nil
}

// IsExcluded returns true if the given path or its base name matches any
// exclude pattern. Base names are matched so that patterns like "*.tmp"
// apply regardless of the directory a file lives in.
func (e *Excluder) IsExcluded(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range e.globs {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}
