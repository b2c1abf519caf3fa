package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/inline-resize/internal/pipeline"
)

// Target names one run: the project root, the output tree and the
// collection excludes.
type Target struct {
	Src     string
	Dest    string
	Exclude []string
}

// Report describes a finished build.
type Report struct {
	Stats     pipeline.Stats
	Collected int
	Written   []string
}

// Build runs p once over t: it locks Dest, collects Src, drives the
// pipeline into a Writer and releases the lock. Write failures and run
// failures are joined.
func Build(ctx context.Context, p *pipeline.Pipeline, t Target) (Report, error) {
	src, err := filepath.Abs(t.Src)
	if err != nil {
		return Report{}, fmt.Errorf("resolve src: %w", err)
	}
	dest, err := filepath.Abs(t.Dest)
	if err != nil {
		return Report{}, fmt.Errorf("resolve dest: %w", err)
	}
	if src == dest {
		return Report{}, errors.New("dest must differ from src")
	}

	lock, err := Acquire(dest)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = lock.Release() }()

	assets, err := Collect(src, withDest(src, dest, t.Exclude))
	if err != nil {
		return Report{}, err
	}

	w := NewWriter(dest)
	stats, runErr := p.RunAll(ctx, assets, w.Emit)
	return Report{
		Stats:     stats,
		Collected: len(assets),
		Written:   w.Written(),
	}, errors.Join(runErr, w.Err())
}

// withDest adds an exclude for dest when it lives inside src, so a build
// never reads its own output.
func withDest(src, dest string, exclude []string) []string {
	rel, err := filepath.Rel(src, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return exclude
	}
	out := append([]string(nil), exclude...)
	return append(out, filepath.ToSlash(rel)+"/**")
}
