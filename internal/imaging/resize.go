package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"io"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// UnboundedSide is the box bound used for the axis a resize directive does not
// constrain. It is large enough that only the requested axis ever limits the
// result.
const UnboundedSide = 10000

// DefaultJPEGQuality is the quality used when re-encoding JPEG variants.
const DefaultJPEGQuality = 90

// Backend is the raster resize capability the orchestrator calls through.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Probe returns the native size of the encoded image.
	Probe(data []byte) (Size, error)

	// Resize scales the encoded image so it fits inside boxW x boxH while
	// keeping its aspect ratio, and re-encodes it in its original format.
	// name is used for format detection when the content cannot be sniffed.
	Resize(data []byte, name string, boxW, boxH int) ([]byte, error)
}

// NewBackend returns the disintegration/imaging backend when native is true
// and the bild backend otherwise.
func NewBackend(native bool) Backend {
	if native {
		return NewImagingBackend()
	}
	return NewBildBackend()
}

// FitDimensions computes the size of a w x h image scaled to fit inside a
// boxW x boxH box with its aspect ratio preserved. Upscaling is allowed; the
// result is never smaller than 1x1.
//
// Example: a 300x200 image in a 200x10000 box becomes 200x133.
func FitDimensions(w, h, boxW, boxH int) (int, int) {
	if w <= 0 || h <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	scale := math.Min(float64(boxW)/float64(w), float64(boxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	if nw > boxW {
		nw = boxW
	}
	if nh > boxH {
		nh = boxH
	}
	return nw, nh
}

// ImagingBackend resizes with github.com/disintegration/imaging using the
// Lanczos filter. Stored pixels are resized as-is; EXIF orientation is not
// applied, so Probe and Resize agree on which side is the width.
type ImagingBackend struct {
	Filter      imaging.ResampleFilter
	JPEGQuality int
}

// NewImagingBackend returns an ImagingBackend with Lanczos filtering.
func NewImagingBackend() *ImagingBackend {
	return &ImagingBackend{Filter: imaging.Lanczos, JPEGQuality: DefaultJPEGQuality}
}

// Name implements Backend.
func (b *ImagingBackend) Name() string { return "imaging" }

// Probe implements Backend.
func (b *ImagingBackend) Probe(data []byte) (Size, error) {
	return ProbeSize(data)
}

// Resize implements Backend.
func (b *ImagingBackend) Resize(data []byte, name string, boxW, boxH int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := FitDimensions(bounds.Dx(), bounds.Dy(), boxW, boxH)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("invalid resize box %dx%d for %dx%d image", boxW, boxH, bounds.Dx(), bounds.Dy())
	}
	resized := imaging.Resize(img, w, h, b.Filter)

	var buf bytes.Buffer
	switch DetectFormat(data, name) {
	case FormatJPEG:
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(b.JPEGQuality))
	case FormatGIF:
		err = imaging.Encode(&buf, resized, imaging.GIF)
	default:
		err = imaging.Encode(&buf, resized, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// BildBackend resizes with github.com/anthonynsimon/bild.
type BildBackend struct {
	Filter      transform.ResampleFilter
	JPEGQuality int
}

// NewBildBackend returns a BildBackend with linear filtering.
func NewBildBackend() *BildBackend {
	return &BildBackend{Filter: transform.Linear, JPEGQuality: DefaultJPEGQuality}
}

// Name implements Backend.
func (b *BildBackend) Name() string { return "bild" }

// Probe implements Backend.
func (b *BildBackend) Probe(data []byte) (Size, error) {
	return ProbeSize(data)
}

// Resize implements Backend.
func (b *BildBackend) Resize(data []byte, name string, boxW, boxH int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	w, h := FitDimensions(bounds.Dx(), bounds.Dy(), boxW, boxH)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("invalid resize box %dx%d for %dx%d image", boxW, boxH, bounds.Dx(), bounds.Dy())
	}
	resized := transform.Resize(img, w, h, b.Filter)

	var enc imgio.Encoder
	switch DetectFormat(data, name) {
	case FormatJPEG:
		enc = imgio.JPEGEncoder(b.JPEGQuality)
	case FormatGIF:
		enc = gifEncoder
	default:
		enc = imgio.PNGEncoder()
	}

	var buf bytes.Buffer
	if err := enc(&buf, resized); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

// bild ships no GIF encoder.
func gifEncoder(w io.Writer, img image.Image) error {
	return gif.Encode(w, img, nil)
}
