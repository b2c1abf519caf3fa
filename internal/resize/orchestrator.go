// Package resize turns held image assets into every variant the text pass
// asked for, resizing each unique (image, mtime, axis, target) at most once
// per cache lifetime.
package resize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/inline-resize/internal/cache"
	"github.com/ironsheep/inline-resize/internal/imaging"
	"github.com/ironsheep/inline-resize/internal/variant"
)

// StatFunc reads file metadata. os.Stat is the default.
type StatFunc func(name string) (fs.FileInfo, error)

// Image is a held image asset.
type Image struct {
	// Path is the absolute (or working-directory relative) file path; it is
	// what gets stat'ed for the modification time.
	Path string

	// Relative is the path relative to the project root. Registry lookups
	// and cache keys use it.
	Relative string

	// Contents holds the encoded image.
	Contents []byte
}

// Output is an asset produced by the orchestrator.
type Output struct {
	// Source is the image the output derives from.
	Source Image

	// Path is the output file path; Relative is the same path relative to
	// the project root.
	Path     string
	Relative string

	// Variant is the variant the output renders.
	Variant variant.Variant

	// Contents holds the encoded output.
	Contents []byte

	// Cached reports whether Contents came from the cache.
	Cached bool
}

// Orchestrator resolves variants against the content cache and dispatches
// resize jobs concurrently.
type Orchestrator struct {
	backend imaging.Backend
	store   *cache.Store
	stat    StatFunc
	noZoom  bool
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNoZoom forbids upscaling: a target at or above the native size emits
// the original bytes under the variant name.
func WithNoZoom(noZoom bool) Option {
	return func(o *Orchestrator) { o.noZoom = noZoom }
}

// WithStat replaces os.Stat.
func WithStat(stat StatFunc) Option {
	return func(o *Orchestrator) {
		if stat != nil {
			o.stat = stat
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New returns an Orchestrator. noZoom defaults to true.
func New(backend imaging.Backend, store *cache.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		store:   store,
		stat:    os.Stat,
		noZoom:  true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CacheKey derives the image cache key for a variant of rel whose source
// was last modified at mtimeMillis.
func CacheKey(rel string, mtimeMillis int64, v variant.Variant) string {
	return rel + "-" + strconv.FormatInt(mtimeMillis, 10) + string(v.Axis) + strconv.Itoa(v.Target)
}

// Run emits every output required by reg for images. Images without a
// registry entry pass through unchanged. Every resize job is started before
// Run waits; it returns the first job failure only after all jobs settled,
// so independent variants are still emitted.
//
// emit is never called concurrently.
func (o *Orchestrator) Run(ctx context.Context, images []Image, reg *variant.Registry, emit func(Output)) error {
	var mu sync.Mutex
	safeEmit := func(out Output) {
		mu.Lock()
		defer mu.Unlock()
		emit(out)
	}

	// Jobs are independent and side-effect free until their own cache
	// write, so a failure cancels nothing.
	var g errgroup.Group
	for _, img := range images {
		variants := reg.Variants(img.Relative)
		if len(variants) == 0 {
			safeEmit(passthrough(img))
			continue
		}
		for _, v := range variants {
			if !v.IsResize() {
				safeEmit(passthrough(img))
				continue
			}
			g.Go(func() error {
				out, err := o.resolve(ctx, img, v)
				if err != nil {
					return err
				}
				safeEmit(out)
				return nil
			})
		}
	}
	return g.Wait()
}

func passthrough(img Image) Output {
	return Output{
		Source:   img,
		Path:     img.Path,
		Relative: img.Relative,
		Variant:  variant.Original,
		Contents: img.Contents,
	}
}

// resolve produces a single variant, from the cache when possible.
func (o *Orchestrator) resolve(ctx context.Context, img Image, v variant.Variant) (Output, error) {
	logger := o.loggerFrom(ctx)

	info, err := o.stat(img.Path)
	if err != nil {
		return Output{}, &JobError{Kind: KindStat, Path: img.Relative, Variant: v, Err: err}
	}
	key := CacheKey(img.Relative, info.ModTime().UnixMilli(), v)

	out := Output{
		Source:   img,
		Path:     variant.Filename(img.Path, v),
		Relative: variant.Filename(img.Relative, v),
		Variant:  v,
	}

	if e, ok := o.store.Lookup(key); ok {
		out.Contents = e.Data
		out.Cached = true
		return out, nil
	}

	size, err := o.backend.Probe(img.Contents)
	if err != nil {
		return Output{}, &JobError{Kind: KindProbe, Path: img.Relative, Variant: v, Err: err}
	}

	if o.noZoom && tooSmall(size, v) {
		logger.Info("no need to resize",
			slog.String("image", img.Relative),
			slog.String("variant", v.String()),
			slog.String("native", fmt.Sprintf("%dx%d", size.Width, size.Height)))
		o.store.Put(key, cache.Entry{Data: img.Contents})
		out.Contents = img.Contents
		return out, nil
	}

	boxW, boxH := imaging.UnboundedSide, imaging.UnboundedSide
	if v.Axis == variant.AxisWidth {
		boxW = v.Target
	} else {
		boxH = v.Target
	}
	data, err := o.backend.Resize(img.Contents, img.Path, boxW, boxH)
	if err != nil {
		return Output{}, &JobError{Kind: KindResize, Path: img.Relative, Variant: v, Err: err}
	}

	logger.Info("resized",
		slog.String("image", img.Relative),
		slog.String("variant", v.String()),
		slog.String("backend", o.backend.Name()),
		slog.String("saving", savings(len(img.Contents), len(data))))
	o.store.Put(key, cache.Entry{Data: data})
	out.Contents = data
	return out, nil
}

func (o *Orchestrator) loggerFrom(ctx context.Context) *slog.Logger {
	if l := slogcontext.FromCtx(ctx); l != nil && l != slog.Default() {
		return l
	}
	return o.logger
}

// tooSmall reports whether the requested target would upscale the image.
func tooSmall(size imaging.Size, v variant.Variant) bool {
	switch v.Axis {
	case variant.AxisWidth:
		return v.Target >= size.Width
	case variant.AxisHeight:
		return v.Target >= size.Height
	}
	return false
}

func savings(before, after int) string {
	if before == 0 {
		return "0.00%"
	}
	return strconv.FormatFloat(float64(before-after)/float64(before)*100, 'f', 2, 64) + "%"
}

// ErrorKind classifies a failed job.
type ErrorKind string

const (
	KindStat   ErrorKind = "stat"
	KindProbe  ErrorKind = "probe"
	KindResize ErrorKind = "resize"
)

// Sentinels matched by JobError.Is.
var (
	ErrStat   = errors.New("stat failed")
	ErrProbe  = errors.New("probe failed")
	ErrResize = errors.New("resize failed")
)

// JobError is the failure of a single (image, variant) job.
type JobError struct {
	Kind    ErrorKind
	Path    string
	Variant variant.Variant
	Err     error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Kind, e.Path, e.Variant, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *JobError) Is(target error) bool {
	switch target {
	case ErrStat:
		return e.Kind == KindStat
	case ErrProbe:
		return e.Kind == KindProbe
	case ErrResize:
		return e.Kind == KindResize
	}
	return false
}
