package scanner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/inline-resize/internal/cache"
	"github.com/ironsheep/inline-resize/internal/variant"
)

func text(rel, content string) Text {
	return Text{Base: "/project", Relative: filepath.FromSlash(rel), Contents: []byte(content)}
}

func TestScan_RewritesResizeDirectives(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		path    string
		variant variant.Variant
	}{
		{
			name:    "double quotes width",
			content: `<img src="image.jpg;200w">`,
			want:    `<img src="image-200w.jpg">`,
			path:    "image.jpg",
			variant: variant.Variant{Axis: variant.AxisWidth, Target: 200},
		},
		{
			name:    "nested path",
			content: `<img src="a/b.png;150w">`,
			want:    `<img src="a/b-150w.png">`,
			path:    filepath.Join("a", "b.png"),
			variant: variant.Variant{Axis: variant.AxisWidth, Target: 150},
		},
		{
			name:    "single quotes height",
			content: `el.src = 'img/hero.jpeg;80h';`,
			want:    `el.src = 'img/hero-80h.jpeg';`,
			path:    filepath.Join("img", "hero.jpeg"),
			variant: variant.Variant{Axis: variant.AxisHeight, Target: 80},
		},
		{
			name:    "css url",
			content: `background: url(bg.gif;640w);`,
			want:    `background: url(bg-640w.gif);`,
			path:    "bg.gif",
			variant: variant.Variant{Axis: variant.AxisWidth, Target: 640},
		},
		{
			name:    "html entity delimiter",
			content: `data-x=&#x27;icons/x.png;32h&#x27;`,
			want:    `data-x=&#x27;icons/x-32h.png&#x27;`,
			path:    filepath.Join("icons", "x.png"),
			variant: variant.Variant{Axis: variant.AxisHeight, Target: 32},
		},
		{
			name:    "whitespace delimiter and upper case",
			content: "srcset: LOGO.PNG;100W 1x",
			want:    "srcset: LOGO-100w.PNG 1x",
			path:    "LOGO.PNG",
			variant: variant.Variant{Axis: variant.AxisWidth, Target: 100},
		},
		{
			name:    "dot slash prefix",
			content: `"./a.png;20w"`,
			want:    `"a-20w.png"`,
			path:    "a.png",
			variant: variant.Variant{Axis: variant.AxisWidth, Target: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Scan(text("index.html", tt.content))
			assert.Equal(t, tt.want, string(res.Contents))
			assert.Equal(t, []variant.Variant{tt.variant}, res.Variants.Variants(tt.path))
		})
	}
}

func TestScan_NoSuffixIsRecordedButUnchanged(t *testing.T) {
	content := `<img src="image.jpg"><img src="image.jpg;200w">`
	res := Scan(text("index.html", content))

	assert.Equal(t, `<img src="image.jpg"><img src="image-200w.jpg">`, string(res.Contents))
	assert.Equal(t, []variant.Variant{
		variant.Original,
		{Axis: variant.AxisWidth, Target: 200},
	}, res.Variants.Variants("image.jpg"))
	require.Len(t, res.References, 2)
	assert.Equal(t, variant.Original, res.References[0].Variant)
	assert.Equal(t, 10, res.References[0].Offset)
}

func TestScan_InvalidDirectiveIsOriginal(t *testing.T) {
	for _, content := range []string{
		`"ab.png;0w"`,
		`"ab.png;99999999999999999999999w"`,
	} {
		res := Scan(text("index.html", content))
		assert.Equal(t, content, string(res.Contents))
		assert.Equal(t, []variant.Variant{variant.Original}, res.Variants.Variants("ab.png"))
	}
}

func TestScan_IgnoresNonImages(t *testing.T) {
	content := `<a href="doc.pdf">x</a> <script src="app.js"></script> "xy.png" without delimiter:yz.png`
	res := Scan(text("index.html", content))
	assert.Equal(t, content, string(res.Contents))
	assert.Equal(t, []string{"xy.png"}, res.Variants.Paths())
}

func TestScan_SingleCharacterStemIsNotAReference(t *testing.T) {
	res := Scan(text("index.html", `"a.png;10w"`))
	assert.Equal(t, `"a.png;10w"`, string(res.Contents))
	assert.Empty(t, res.Variants)
}

func TestScan_UnicodeSpaceDelimiter(t *testing.T) {
	for _, sep := range []string{"\u00a0", "\u2003", "\u3000", "\ufeff"} {
		content := "see" + sep + "photo.jpg;120w"
		res := Scan(text("index.html", content))
		assert.Equal(t, "see"+sep+"photo-120w.jpg", string(res.Contents), "%q", sep)
		assert.Equal(t, []string{"photo.jpg"}, res.Variants.Paths())
	}
}

func TestScan_NoReferences(t *testing.T) {
	content := "<html><body>nothing here</body></html>"
	res := Scan(text("no-reference.html", content))
	assert.Equal(t, content, string(res.Contents))
	assert.Empty(t, res.Variants)
}

func TestScan_NestedAssetPreservesDirectory(t *testing.T) {
	res := Scan(text("sub/nested-reference-1.html", `<img src="image.jpg;200w">`))
	assert.Equal(t, `<img src="image-200w.jpg">`, string(res.Contents))
	assert.Equal(t, []string{filepath.Join("sub", "image.jpg")}, res.Variants.Paths())
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		relative string
		ref      string
		want     string
	}{
		{"root asset", "/p", "index.html", "img/a.png", filepath.Join("img", "a.png")},
		{"nested asset", "/p", filepath.Join("blog", "post.html"), "a.png", filepath.Join("blog", "a.png")},
		{"parent reference", "/p", filepath.Join("blog", "post.html"), "../img/a.png", filepath.Join("img", "a.png")},
		{"cleaned", "/p", "index.html", "./img//a.png", filepath.Join("img", "a.png")},
		{"relative base", "", "index.html", "a.png", "a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(filepath.FromSlash(tt.base), tt.relative, tt.ref))
		})
	}
}

func TestScan_IsDeterministic(t *testing.T) {
	in := text("index.html", `"ab.png;10w" "bc.png" "ab.png;20h"`)
	first := Scan(in)
	second := Scan(in)
	assert.Equal(t, `"ab-10w.png" "bc.png" "ab-20h.png"`, string(first.Contents))
	assert.Len(t, first.References, 3)
	assert.Equal(t, first.Contents, second.Contents)
	assert.Equal(t, first.Variants, second.Variants)
}

func TestCacheKey(t *testing.T) {
	a := text("index.html", "one")
	b := text("index.html", "two")
	c := text("other.html", "one")

	assert.NotEqual(t, CacheKey(a), CacheKey(b))
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
	assert.Equal(t, CacheKey(a), CacheKey(text("index.html", "one")))
}

func TestScanner_ServesFromCache(t *testing.T) {
	store := cache.New()
	s := New(store)
	in := text("reference-1.html", `<img src="image.jpg;200w">`)

	first := s.Scan(context.Background(), in)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, store.Len())

	store.Sweep()

	second := s.Scan(context.Background(), in)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Contents, second.Contents)
	assert.Equal(t, first.Variants, second.Variants)
	assert.Equal(t, 1, store.Len())

	e, ok := store.Get(CacheKey(in))
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.Generation, "hit must restamp the entry")
}

func TestScanner_CachedFragmentIsNotAliased(t *testing.T) {
	store := cache.New()
	s := New(store)
	in := text("index.html", `"ab.png;10w"`)

	res := s.Scan(context.Background(), in)
	require.Len(t, res.Variants.Variants("ab.png"), 1)
	res.Variants.Add("ab.png", variant.Variant{Axis: variant.AxisWidth, Target: 999})

	again := s.Scan(context.Background(), in)
	assert.True(t, again.Cached)
	assert.Len(t, again.Variants.Variants("ab.png"), 1)
}

func TestScanner_NilStore(t *testing.T) {
	res := New(nil).Scan(context.Background(), text("index.html", `"ab.png;10w"`))
	assert.Equal(t, `"ab-10w.png"`, string(res.Contents))
	assert.False(t, res.Cached)
}
