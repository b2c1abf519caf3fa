// Package pipeline adapts the scanner and the resize orchestrator to a
// streaming build protocol: text assets are rewritten as they arrive, image
// assets are held until end-of-stream, and then every required variant is
// produced.
//
// A Pipeline owns no cache of its own. The content store is injected so one
// store can serve many consecutive runs; each Flush sweeps it and advances
// its generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/ironsheep/inline-resize/internal/cache"
	"github.com/ironsheep/inline-resize/internal/imaging"
	"github.com/ironsheep/inline-resize/internal/logging"
	"github.com/ironsheep/inline-resize/internal/resize"
	"github.com/ironsheep/inline-resize/internal/scanner"
	"github.com/ironsheep/inline-resize/internal/variant"
)

// ErrUnsupportedInput is returned for streamed assets. It fails that asset
// only; the run continues.
var ErrUnsupportedInput = errors.New("streams are not supported")

// DefaultReplaceIn lists the text asset extensions scanned by default.
var DefaultReplaceIn = []string{".html", ".css", ".js"}

// ImageExtensions lists the extensions held for the resize pass.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Emit receives every asset the pipeline sends downstream.
type Emit func(Asset)

// Options configures a Pipeline.
type Options struct {
	// ReplaceIn lists the extensions of text assets to scan. Defaults to
	// DefaultReplaceIn.
	ReplaceIn []string

	// AllowZoom permits upscaling. The zero value never upscales: a target
	// at or above the native size emits the original bytes.
	AllowZoom bool

	// Quiet suppresses all logging.
	Quiet bool

	// Logger receives pipeline logs. Defaults to a no-op logger.
	Logger *slog.Logger

	// Stat overrides os.Stat for the resize pass.
	Stat resize.StatFunc
}

// Stats summarizes a completed run.
type Stats struct {
	RunID      string
	Generation uint64
	Text       int
	TextCached int
	Images     int
	Outputs    int
	Evicted    []string
}

// Pipeline processes the assets of consecutive runs. It is not safe for
// concurrent use; a run is driven from a single goroutine.
type Pipeline struct {
	store        *cache.Store
	scanner      *scanner.Scanner
	orchestrator *resize.Orchestrator
	replaceIn    map[string]struct{}
	logger       *slog.Logger

	run *run
}

// run is the state of the run in progress. It exists from the first asset
// received until Flush.
type run struct {
	id         string
	generation uint64
	logger     *slog.Logger
	registry   *variant.Registry
	images     []resize.Image
	held       map[string]Asset
	stats      Stats
}

// New returns a Pipeline backed by store and backend.
func New(store *cache.Store, backend imaging.Backend, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil || opts.Quiet {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "inline-resize")

	exts := opts.ReplaceIn
	if len(exts) == 0 {
		exts = DefaultReplaceIn
	}
	replaceIn := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		replaceIn[normalizeExt(ext)] = struct{}{}
	}

	return &Pipeline{
		store:   store,
		scanner: scanner.New(store),
		orchestrator: resize.New(backend, store,
			resize.WithNoZoom(!opts.AllowZoom),
			resize.WithStat(opts.Stat),
			resize.WithLogger(logger)),
		replaceIn: replaceIn,
		logger:    logger,
	}
}

// Store returns the content store the pipeline runs against.
func (p *Pipeline) Store() *cache.Store {
	return p.store
}

func (p *Pipeline) current() *run {
	if p.run == nil {
		id := uuid.NewString()
		gen := p.store.Generation()
		p.run = &run{
			id:         id,
			generation: gen,
			logger:     p.logger.With(slog.String("run_id", id), slog.Uint64("generation", gen)),
			registry:   variant.NewRegistry(),
			held:       make(map[string]Asset),
			stats:      Stats{RunID: id, Generation: gen},
		}
	}
	return p.run
}

// Process handles one incoming asset. Text assets are rewritten and emitted
// immediately, images are held for Flush, and everything else passes
// through. Streamed assets yield ErrUnsupportedInput.
func (p *Pipeline) Process(ctx context.Context, a Asset, emit Emit) error {
	r := p.current()
	ctx = slogcontext.NewCtx(ctx, r.logger)

	if a.IsStream() {
		return fmt.Errorf("%s: %w", a.Path, ErrUnsupportedInput)
	}
	if a.IsNull() {
		emit(a)
		return nil
	}

	ext := normalizeExt(a.Ext())
	switch {
	case p.scans(ext):
		res := p.scanner.Scan(ctx, scanner.Text{
			Base:     a.Base,
			Relative: a.Relative(),
			Contents: a.Contents,
		})
		r.registry.MergeRequest(res.Variants)
		r.stats.Text++
		if res.Cached {
			r.stats.TextCached++
		}
		emit(a.derive(a.Path, res.Contents))
		r.stats.Outputs++
	case isImage(ext):
		// Held until every text asset has been seen.
		r.images = append(r.images, resize.Image{
			Path:     a.Path,
			Relative: a.Relative(),
			Contents: a.Contents,
		})
		r.held[a.Path] = a
		r.stats.Images++
	default:
		emit(a)
		r.stats.Outputs++
	}
	return nil
}

// Flush ends the run: it resizes the held images into every variant the
// registry requires, then sweeps the store and resets the run state. The
// sweep happens even when resizing fails.
func (p *Pipeline) Flush(ctx context.Context, emit Emit) (Stats, error) {
	r := p.current()
	p.run = nil
	ctx = slogcontext.NewCtx(ctx, r.logger)

	var runErr error
	if len(r.images) > 0 {
		runErr = p.orchestrator.Run(ctx, r.images, r.registry, func(out resize.Output) {
			src := r.held[out.Source.Path]
			if out.Variant.IsResize() {
				emit(src.derive(out.Path, out.Contents))
			} else {
				emit(src)
			}
			r.stats.Outputs++
		})
	}

	r.stats.Evicted = p.store.Sweep()
	for _, key := range r.stats.Evicted {
		r.logger.Debug("deleted cache entry", slog.String("key", key))
	}

	if runErr != nil {
		r.logger.Error("run failed", slog.String("error", runErr.Error()))
		return r.stats, fmt.Errorf("pipeline: %w", runErr)
	}
	r.logger.Debug("run complete",
		slog.Int("text", r.stats.Text),
		slog.Int("images", r.stats.Images),
		slog.Int("outputs", r.stats.Outputs),
		slog.Int("cache_entries", p.store.Len()))
	return r.stats, nil
}

// RunAll drives a complete run over assets. Unsupported inputs are reported
// alongside any flush failure; the other assets are still processed.
func (p *Pipeline) RunAll(ctx context.Context, assets []Asset, emit Emit) (Stats, error) {
	var errs []error
	for _, a := range assets {
		if err := p.Process(ctx, a, emit); err != nil {
			errs = append(errs, err)
		}
	}
	stats, err := p.Flush(ctx, emit)
	if err != nil {
		errs = append(errs, err)
	}
	return stats, errors.Join(errs...)
}

func (p *Pipeline) scans(ext string) bool {
	_, ok := p.replaceIn[ext]
	return ok
}

func isImage(ext string) bool {
	for _, e := range ImageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
