package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies an encoded image format handled by the resize backends.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatUnknown Format = "unknown"
)

// Size is the native pixel size of an encoded image.
type Size struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// ImageInfo contains metadata about an encoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", or "unknown".
	// Detection sniffs the content first and falls back to the extension.
	Format Format `json:"format"`

	// MimeType is the sniffed media type, e.g. "image/png".
	MimeType string `json:"mime_type"`

	// SizeBytes is the length of the encoded data.
	SizeBytes int64 `json:"size_bytes"`
}

// DetectFormat determines the encoding of data.
//
// Parameters:
//   - data: Encoded image bytes.
//   - name: File name or path used as a fallback when the content cannot be
//     sniffed. Only its extension is consulted.
//
// # Format Detection
//
// Content sniffing via mimetype wins over the extension, so a PNG saved as
// "photo.jpg" is re-encoded as PNG. Extensions map as:
//   - ".png" -> png
//   - ".jpg", ".jpeg" -> jpeg
//   - ".gif" -> gif
//   - Other extensions -> unknown
func DetectFormat(data []byte, name string) Format {
	if len(data) > 0 {
		mt := mimetype.Detect(data)
		switch {
		case mt.Is("image/png"):
			return FormatPNG
		case mt.Is("image/jpeg"):
			return FormatJPEG
		case mt.Is("image/gif"):
			return FormatGIF
		}
	}
	return FormatFromExtension(filepath.Ext(name))
}

// FormatFromExtension maps a file extension (with or without the dot, any
// case) to a Format.
func FormatFromExtension(ext string) Format {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "png":
		return FormatPNG
	case "jpg", "jpeg":
		return FormatJPEG
	case "gif":
		return FormatGIF
	}
	return FormatUnknown
}

// ProbeSize reads the native dimensions of an encoded image without decoding
// its pixels.
//
// # Errors
//
//   - Returns error if data is not a valid PNG, JPEG, or GIF image
func ProbeSize(data []byte) (Size, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Size{}, fmt.Errorf("failed to read image size: %w", err)
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// LoadImageInfo reads an image file and returns its metadata.
//
// Parameters:
//   - path: Path to the image file.
//
// Returns:
//   - *ImageInfo: Metadata about the image.
//   - error: Non-nil if the file cannot be read or is not a supported image.
func LoadImageInfo(path string) (*ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return InfoFromBytes(data, path)
}

// InfoFromBytes returns metadata for encoded image data. name is only used
// for format detection when sniffing fails.
func InfoFromBytes(data []byte, name string) (*ImageInfo, error) {
	size, err := ProbeSize(data)
	if err != nil {
		return nil, err
	}
	return &ImageInfo{
		Width:     size.Width,
		Height:    size.Height,
		Format:    DetectFormat(data, name),
		MimeType:  mimetype.Detect(data).String(),
		SizeBytes: int64(len(data)),
	}, nil
}
