package pipeline

import (
	"io"
	"path/filepath"
	"time"
)

// Asset is a file travelling through the pipeline, modelled on the host
// build system's virtual file: a path under a base directory plus either
// buffered contents or a stream.
type Asset struct {
	// Cwd is the working directory the asset was collected from.
	Cwd string

	// Base is the project root; Relative() is computed against it.
	Base string

	// Path is the full file path.
	Path string

	// Contents holds buffered contents. Nil for null and stream assets.
	Contents []byte

	// Stream is set for streamed assets, which the pipeline rejects.
	Stream io.Reader

	// ModTime is the source modification time, informational only; the
	// resize pass stats Path itself.
	ModTime time.Time
}

// Relative returns Path relative to Base.
func (a Asset) Relative() string {
	if a.Base == "" {
		return a.Path
	}
	rel, err := filepath.Rel(a.Base, a.Path)
	if err != nil {
		return a.Path
	}
	return rel
}

// Ext returns the extension of Path, including the dot.
func (a Asset) Ext() string {
	return filepath.Ext(a.Path)
}

// IsNull reports whether the asset carries neither contents nor a stream,
// e.g. a directory entry.
func (a Asset) IsNull() bool {
	return a.Contents == nil && a.Stream == nil
}

// IsStream reports whether the asset is streamed rather than buffered.
func (a Asset) IsStream() bool {
	return a.Stream != nil
}

// derive returns a new buffered asset sharing a's Cwd and Base.
func (a Asset) derive(path string, contents []byte) Asset {
	return Asset{
		Cwd:      a.Cwd,
		Base:     a.Base,
		Path:     path,
		Contents: contents,
		ModTime:  a.ModTime,
	}
}
