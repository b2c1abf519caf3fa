// Package scanner finds image references inside text assets, rewrites the
// ones carrying a resize directive, and reports which variants were asked
// for.
//
// A reference is a path-like token preceded by a quote, parenthesis,
// whitespace, or the &#x27; entity, with a jpg/jpeg/gif/png extension and an
// optional ";<N>w" or ";<N>h" suffix:
//
//	<img src="img/logo.png;200w">   ->   <img src="img/logo-200w.png">
//
// Tokens without a suffix are left untouched and recorded as requests for
// the original image.
package scanner

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/ironsheep/inline-resize/internal/cache"
	"github.com/ironsheep/inline-resize/internal/variant"
)

// referencePattern mirrors the wire format between text assets and the
// resize pass. The first path character excludes the space that the rest of
// the class allows. Any Unicode space (NBSP, em space, BOM) delimits, not
// only ASCII whitespace.
var referencePattern = regexp.MustCompile(
	`(?i)(?:'|"|\(|[\s\p{Z}\x{FEFF}]|&#x27;)([a-z0-9_@\-/.][ a-z0-9_@\-/.]+\.(?:jpe?g|gif|png))(?:;(\d+)([wh]))?`,
)

// Text is a buffered text asset handed to the scanner.
type Text struct {
	// Base is the project root the asset was collected from.
	Base string

	// Relative is the asset path relative to Base.
	Relative string

	// Contents holds the raw bytes.
	Contents []byte
}

// Reference is a located image reference.
type Reference struct {
	// Path is the image path normalized relative to the project root.
	Path string

	// Raw is the path exactly as it appears in the text.
	Raw string

	// Variant is the requested resize, variant.Original when absent.
	Variant variant.Variant

	// Offset is the byte offset of Raw in the original content.
	Offset int
}

// Result is the outcome of scanning one text asset.
type Result struct {
	// Contents is the rewritten text.
	Contents []byte

	// Variants is the request fragment contributed by this asset.
	Variants variant.Request

	// References lists every match in document order.
	References []Reference

	// Cached reports whether the result came from the content cache.
	Cached bool
}

// Find returns every reference in content without rewriting it.
func Find(t Text) []Reference {
	located := locate(t)
	refs := make([]Reference, len(located))
	for i, l := range located {
		refs[i] = l.Reference
	}
	return refs
}

// located is a reference plus the end of its whole match, suffix included.
type located struct {
	Reference
	end int
}

func locate(t Text) []located {
	content := string(t.Contents)
	matches := referencePattern.FindAllStringSubmatchIndex(content, -1)
	out := make([]located, 0, len(matches))
	for _, m := range matches {
		raw := content[m[2]:m[3]]
		out = append(out, located{
			Reference: Reference{
				Path:    NormalizePath(t.Base, t.Relative, raw),
				Raw:     raw,
				Variant: parseDirective(content, m),
				Offset:  m[2],
			},
			end: m[1],
		})
	}
	return out
}

// parseDirective reads the optional ";<N><axis>" groups of a match. A zero
// or overflowing target is not a directive.
func parseDirective(content string, m []int) variant.Variant {
	if m[4] < 0 {
		return variant.Original
	}
	target, err := strconv.Atoi(content[m[4]:m[5]])
	if err != nil || target <= 0 {
		return variant.Original
	}
	axis, err := variant.ParseAxis(content[m[6]:m[7]])
	if err != nil {
		return variant.Original
	}
	return variant.Variant{Axis: axis, Target: target}
}

// Scan rewrites every reference with a resize directive and returns the
// variants found. It is a pure transformation.
func Scan(t Text) Result {
	content := string(t.Contents)
	located := locate(t)

	req := make(variant.Request)
	refs := make([]Reference, 0, len(located))
	var out strings.Builder
	out.Grow(len(content))
	last := 0
	for _, l := range located {
		refs = append(refs, l.Reference)
		req.Add(l.Path, l.Variant)
		if !l.Variant.IsResize() {
			continue
		}
		// Keep the delimiter, replace the path and drop the ";Nw" suffix.
		out.WriteString(content[last:l.Offset])
		out.WriteString(variant.FilenameSlash(l.Raw, l.Variant))
		last = l.end
	}
	out.WriteString(content[last:])

	return Result{
		Contents:   []byte(out.String()),
		Variants:   req,
		References: refs,
	}
}

// NormalizePath resolves ref against base and re-expresses it relative to
// the project root, under the directory of the referencing asset.
func NormalizePath(base, relative, ref string) string {
	native := filepath.FromSlash(ref)
	resolved := native
	if !filepath.IsAbs(native) {
		resolved = filepath.Join(base, native)
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		rel = filepath.Clean(native)
	}
	return filepath.Join(filepath.Dir(relative), rel)
}

// Fingerprint returns the content digest embedded in text cache keys.
func Fingerprint(b []byte) digest.Digest {
	return digest.FromBytes(b)
}

// CacheKey derives the text cache key from the asset path and its content.
func CacheKey(t Text) string {
	return t.Relative + "-" + Fingerprint(t.Contents).Encoded()
}

// Scanner runs Scan through a content cache so unchanged assets are served
// from memory on later runs.
type Scanner struct {
	store *cache.Store
}

// New returns a Scanner backed by store. A nil store disables caching.
func New(store *cache.Store) *Scanner {
	return &Scanner{store: store}
}

// Scan returns the rewritten text and variant fragment for t. On a cache hit
// the entry is touched and its stored fragment returned, so callers must
// still merge the fragment into the run's registry.
func (s *Scanner) Scan(ctx context.Context, t Text) Result {
	logger := slogcontext.FromCtx(ctx)

	if s.store == nil {
		return Scan(t)
	}

	key := CacheKey(t)
	if e, ok := s.store.Lookup(key); ok {
		logger.Debug("text cache hit", slog.String("asset", t.Relative))
		return Result{
			Contents: bytes.Clone(e.Data),
			Variants: e.Variants.Clone(),
			Cached:   true,
		}
	}

	logger.Debug("finding references", slog.String("asset", t.Relative))
	res := Scan(t)
	logger.Info("found references",
		slog.String("asset", t.Relative),
		slog.String("images", strings.Join(res.Variants.Paths(), ", ")))

	s.store.Put(key, cache.Entry{
		Data:     bytes.Clone(res.Contents),
		Variants: res.Variants.Clone(),
	})
	return res
}
