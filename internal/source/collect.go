package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/ironsheep/inline-resize/internal/pipeline"
)

// Matcher reports whether a slash-separated relative path is excluded.
type Matcher struct {
	globs []glob.Glob
}

// NewMatcher compiles exclude patterns with "/" as the separator.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{globs: make([]glob.Glob, 0, len(patterns))}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile glob pattern %q: %w", pattern, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether rel matches any pattern.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Collect walks root and returns every regular file not matched by exclude
// as a buffered asset, in lexical order.
func Collect(root string, exclude []string) ([]pipeline.Asset, error) {
	matcher, err := NewMatcher(exclude)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	var assets []pipeline.Asset
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == base {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.Match(rel) || matcher.Match(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || d.Name() == LockFileName || matcher.Match(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		assets = append(assets, pipeline.Asset{
			Cwd:      base,
			Base:     base,
			Path:     path,
			Contents: contents,
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", base, err)
	}
	return assets, nil
}
