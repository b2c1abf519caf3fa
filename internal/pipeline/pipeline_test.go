package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/inline-resize/internal/cache"
	"github.com/ironsheep/inline-resize/internal/imaging"
	"github.com/ironsheep/inline-resize/internal/resize"
)

const (
	reference1 = `<html><body><img src="image.jpg;200w"></body></html>`
	reference2 = `<html><body><img src="image.jpg;100w"></body></html>`
	bothForms  = `<img src="image.jpg"><img src="image.jpg;200w">`
	noRefs     = `<html><body>plain</body></html>`
)

// fixtures lays out a project directory and returns its root.
type fixtures struct {
	t    *testing.T
	base string
}

func newFixtures(t *testing.T) *fixtures {
	return &fixtures{t: t, base: t.TempDir()}
}

func (f *fixtures) write(rel string, data []byte) Asset {
	f.t.Helper()
	path := filepath.Join(f.base, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, data, 0o644))
	return Asset{Cwd: f.base, Base: f.base, Path: path, Contents: data}
}

func (f *fixtures) jpeg(rel string, w, h int) Asset {
	f.t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(f.t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return f.write(rel, buf.Bytes())
}

type sink struct {
	assets []Asset
}

func (s *sink) emit(a Asset) { s.assets = append(s.assets, a) }

func (s *sink) byRel() map[string]Asset {
	out := make(map[string]Asset, len(s.assets))
	for _, a := range s.assets {
		out[filepath.ToSlash(a.Relative())] = a
	}
	return out
}

func (s *sink) names() []string {
	var names []string
	for rel := range s.byRel() {
		names = append(names, rel)
	}
	sort.Strings(names)
	return names
}

func newPipeline(store *cache.Store) *Pipeline {
	return New(store, imaging.NewImagingBackend(), Options{})
}

func TestRunAll_ReferenceScenario(t *testing.T) {
	f := newFixtures(t)
	html := f.write("reference-1.html", []byte(reference1))
	img := f.jpeg("image.jpg", 300, 200)

	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(), []Asset{html, img}, out.emit)
	require.NoError(t, err)

	assert.Equal(t, []string{"image-200w.jpg", "reference-1.html"}, out.names())
	got := out.byRel()
	assert.Contains(t, string(got["reference-1.html"].Contents), `"image-200w.jpg"`)

	size, err := imaging.ProbeSize(got["image-200w.jpg"].Contents)
	require.NoError(t, err)
	assert.Equal(t, 200, size.Width)
	assert.Equal(t, f.base, got["image-200w.jpg"].Base)
}

func TestRunAll_TextWithoutImages(t *testing.T) {
	f := newFixtures(t)
	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(),
		[]Asset{f.write("reference-1.html", []byte(reference1))}, out.emit)
	require.NoError(t, err)
	require.Len(t, out.assets, 1)
	assert.Contains(t, string(out.assets[0].Contents), `"image-200w.jpg"`)
}

func TestRunAll_NoReferences(t *testing.T) {
	f := newFixtures(t)
	var out sink
	stats, err := newPipeline(cache.New()).RunAll(context.Background(),
		[]Asset{f.write("no-reference.html", []byte(noRefs))}, out.emit)
	require.NoError(t, err)
	assert.Equal(t, noRefs, string(out.assets[0].Contents))
	assert.Equal(t, 1, stats.Text)
}

func TestRunAll_NullAssetPassesThrough(t *testing.T) {
	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(), []Asset{{}}, out.emit)
	require.NoError(t, err)
	assert.Len(t, out.assets, 1)
}

func TestRunAll_StreamIsUnsupported(t *testing.T) {
	f := newFixtures(t)
	stream := Asset{Base: f.base, Path: filepath.Join(f.base, "x.html"), Stream: strings.NewReader("x")}
	html := f.write("no-reference.html", []byte(noRefs))

	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(), []Asset{stream, html}, out.emit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedInput)
	assert.Equal(t, "streams are not supported", ErrUnsupportedInput.Error())
	assert.Equal(t, []string{"no-reference.html"}, out.names(), "other assets still flow")
}

func TestRunAll_OtherAssetsPassThrough(t *testing.T) {
	f := newFixtures(t)
	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(),
		[]Asset{f.write("readme.txt", []byte(`"image.jpg;200w"`))}, out.emit)
	require.NoError(t, err)
	assert.Equal(t, `"image.jpg;200w"`, string(out.assets[0].Contents))
}

func TestRunAll_Subfolders(t *testing.T) {
	f := newFixtures(t)
	html := f.write("nested-reference-1.html", []byte(reference1))
	nestedHTML := f.write("sub/page.html", []byte(reference1))
	top := f.jpeg("image.jpg", 300, 200)
	nested := f.jpeg("sub/image.jpg", 400, 100)

	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(), []Asset{html, nestedHTML, top, nested}, out.emit)
	require.NoError(t, err)

	got := out.byRel()
	require.Contains(t, got, "image-200w.jpg")
	require.Contains(t, got, "sub/image-200w.jpg")
	assert.NotEqual(t, got["image-200w.jpg"].Contents, got["sub/image-200w.jpg"].Contents)
	for _, rel := range []string{"image-200w.jpg", "sub/image-200w.jpg"} {
		size, err := imaging.ProbeSize(got[rel].Contents)
		require.NoError(t, err)
		assert.Equal(t, 200, size.Width, rel)
	}
}

func TestRunAll_TwoReferencingFiles(t *testing.T) {
	f := newFixtures(t)
	assets := []Asset{
		f.write("reference-1.html", []byte(reference1)),
		f.write("reference-2.html", []byte(reference2)),
		f.write("reference-3.html", []byte(reference1)),
		f.jpeg("image.jpg", 300, 200),
	}

	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(), assets, out.emit)
	require.NoError(t, err)
	assert.Len(t, out.assets, 5, "three html files and one image per distinct width")
	assert.Equal(t, []string{"image-100w.jpg", "image-200w.jpg", "reference-1.html", "reference-2.html", "reference-3.html"}, out.names())
}

func TestRunAll_ResizedAndOriginal(t *testing.T) {
	f := newFixtures(t)
	img := f.jpeg("image.jpg", 300, 200)
	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(),
		[]Asset{f.write("resized-and-original.html", []byte(bothForms)), img}, out.emit)
	require.NoError(t, err)

	assert.Len(t, out.assets, 3)
	assert.Equal(t, img.Contents, out.byRel()["image.jpg"].Contents)
}

func TestRunAll_NoZoom(t *testing.T) {
	f := newFixtures(t)
	img := f.jpeg("small.jpg", 100, 50)
	var out sink
	_, err := newPipeline(cache.New()).RunAll(context.Background(),
		[]Asset{f.write("index.html", []byte(`<img src="small.jpg;200w">`)), img}, out.emit)
	require.NoError(t, err)
	assert.Equal(t, img.Contents, out.byRel()["small-200w.jpg"].Contents)
}

func TestRunAll_ZeroOptionsNeverUpscale(t *testing.T) {
	f := newFixtures(t)
	img := f.jpeg("small.jpg", 100, 50)
	html := f.write("index.html", []byte(`<img src="small.jpg;200w">`))

	var out sink
	_, err := New(cache.New(), imaging.NewImagingBackend(), Options{}).RunAll(context.Background(),
		[]Asset{html, img}, out.emit)
	require.NoError(t, err)
	assert.Equal(t, img.Contents, out.byRel()["small-200w.jpg"].Contents)

	var zoomed sink
	_, err = New(cache.New(), imaging.NewImagingBackend(), Options{AllowZoom: true}).RunAll(context.Background(),
		[]Asset{html, img}, zoomed.emit)
	require.NoError(t, err)
	size, err := imaging.ProbeSize(zoomed.byRel()["small-200w.jpg"].Contents)
	require.NoError(t, err)
	assert.Equal(t, imaging.Size{Width: 200, Height: 100}, size)
}

func TestRunAll_Idempotent(t *testing.T) {
	f := newFixtures(t)
	assets := []Asset{
		f.write("reference-1.html", []byte(reference1)),
		f.write("resized-and-original.html", []byte(bothForms)),
		f.jpeg("image.jpg", 300, 200),
	}
	store := cache.New()
	p := newPipeline(store)

	var first, second sink
	_, err := p.RunAll(context.Background(), assets, first.emit)
	require.NoError(t, err)
	keys := store.Keys()

	stats, err := p.RunAll(context.Background(), assets, second.emit)
	require.NoError(t, err)

	assert.Equal(t, keys, store.Keys())
	assert.Equal(t, 2, stats.TextCached)
	a, b := first.byRel(), second.byRel()
	require.Equal(t, first.names(), second.names())
	for rel := range a {
		assert.Equal(t, a[rel].Contents, b[rel].Contents, rel)
	}
}

// Mirrors the multi-pipe behaviour: runs alternate referencing files and
// the max age changes between them.
func TestRunAll_CacheAcrossRuns(t *testing.T) {
	f := newFixtures(t)
	ref1 := f.write("reference-1.html", []byte(reference1))
	ref2 := f.write("reference-2.html", []byte(reference2))
	img := f.jpeg("image.jpg", 300, 200)

	store := cache.New()
	p := newPipeline(store)
	run := func(assets ...Asset) {
		t.Helper()
		_, err := p.RunAll(context.Background(), assets, func(Asset) {})
		require.NoError(t, err)
	}

	run(ref1, img)
	assert.Len(t, store.Keys(), 2)

	run(ref2, img)
	assert.Len(t, store.Keys(), 2, "entries of the first run are evicted")

	store.SetMaxAge(1)
	run(ref1, img)
	assert.Len(t, store.Keys(), 4, "entries of the previous run survive one extra sweep")

	run(ref1, img)
	assert.Len(t, store.Keys(), 2)
}

func TestRunAll_CacheHitStillRegistersVariants(t *testing.T) {
	f := newFixtures(t)
	html := f.write("reference-1.html", []byte(reference1))
	img := f.jpeg("image.jpg", 300, 200)
	p := newPipeline(cache.New())

	_, err := p.RunAll(context.Background(), []Asset{html, img}, func(Asset) {})
	require.NoError(t, err)

	var out sink
	stats, err := p.RunAll(context.Background(), []Asset{html, img}, out.emit)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TextCached)
	assert.Contains(t, out.byRel(), "image-200w.jpg")
}

func TestRunAll_ResizeFailureStillSweeps(t *testing.T) {
	f := newFixtures(t)
	html := f.write("index.html", []byte(`"broken.png;10w" "image.jpg;200w"`))
	broken := f.write("broken.png", []byte("not a png"))
	img := f.jpeg("image.jpg", 300, 200)

	store := cache.New()
	p := newPipeline(store)
	var out sink
	stats, err := p.RunAll(context.Background(), []Asset{html, broken, img}, out.emit)
	require.Error(t, err)
	assert.ErrorIs(t, err, resize.ErrProbe)
	assert.True(t, strings.HasPrefix(err.Error(), "pipeline: "))

	assert.Contains(t, out.byRel(), "image-200w.jpg", "independent variants are still emitted")
	assert.Equal(t, uint64(1), store.Generation(), "sweep runs even on failure")
	assert.Equal(t, uint64(0), stats.Generation)
}

func TestPipeline_ReplaceInOption(t *testing.T) {
	f := newFixtures(t)
	p := New(cache.New(), imaging.NewImagingBackend(), Options{ReplaceIn: []string{"MD"}})

	var out sink
	_, err := p.RunAll(context.Background(), []Asset{
		f.write("doc.md", []byte(`![x](image.jpg;200w)`)),
		f.write("index.html", []byte(reference1)),
	}, out.emit)
	require.NoError(t, err)

	got := out.byRel()
	assert.Equal(t, `![x](image-200w.jpg)`, string(got["doc.md"].Contents))
	assert.Equal(t, reference1, string(got["index.html"].Contents))
}

func TestPipeline_StatFailure(t *testing.T) {
	f := newFixtures(t)
	statErr := errors.New("permission denied")
	p := New(cache.New(), imaging.NewImagingBackend(), Options{
		Stat: func(string) (os.FileInfo, error) { return nil, statErr },
	})

	_, err := p.RunAll(context.Background(), []Asset{
		f.write("reference-1.html", []byte(reference1)),
		f.jpeg("image.jpg", 300, 200),
	}, func(Asset) {})
	assert.ErrorIs(t, err, resize.ErrStat)
	assert.ErrorIs(t, err, statErr)
}

func TestAsset_Relative(t *testing.T) {
	a := Asset{Base: "/p", Path: "/p/sub/x.html"}
	assert.Equal(t, filepath.Join("sub", "x.html"), a.Relative())
	assert.Equal(t, "x.html", Asset{Path: "x.html"}.Relative())
	assert.True(t, Asset{}.IsNull())
	assert.False(t, Asset{Contents: []byte{}}.IsNull())
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".html", normalizeExt("HTML"))
	assert.Equal(t, ".css", normalizeExt(" .css "))
	assert.Equal(t, "", normalizeExt(""))
}
