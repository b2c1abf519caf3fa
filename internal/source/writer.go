package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/inline-resize/internal/pipeline"
)

// Writer is an emit sink that mirrors assets into Dest. Write failures are
// recorded rather than returned so a run can finish; check Err afterwards.
type Writer struct {
	Dest string

	written []string
	errs    []error
}

// NewWriter returns a Writer rooted at dest.
func NewWriter(dest string) *Writer {
	return &Writer{Dest: dest}
}

// Emit writes a under Dest at its path relative to its base. Null assets
// are ignored.
func (w *Writer) Emit(a pipeline.Asset) {
	if a.IsNull() {
		return
	}
	rel := a.Relative()
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		w.errs = append(w.errs, fmt.Errorf("write %s: outside of base %s", a.Path, a.Base))
		return
	}

	target := filepath.Join(w.Dest, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		w.errs = append(w.errs, fmt.Errorf("create dir for %s: %w", rel, err))
		return
	}
	if err := os.WriteFile(target, a.Contents, 0o644); err != nil {
		w.errs = append(w.errs, fmt.Errorf("write %s: %w", rel, err))
		return
	}
	w.written = append(w.written, rel)
}

// Written returns the relative paths written so far.
func (w *Writer) Written() []string {
	return append([]string(nil), w.written...)
}

// Err joins every recorded write failure.
func (w *Writer) Err() error {
	return errors.Join(w.errs...)
}

// Reset clears the written list and recorded errors between runs.
func (w *Writer) Reset() {
	w.written = nil
	w.errs = nil
}
