// Package imaging provides the raster capabilities the resize orchestrator
// calls through: probing native sizes and producing resized variants.
//
// Two interchangeable backends implement the Backend interface:
//   - ImagingBackend: github.com/disintegration/imaging with Lanczos
//     resampling (the default "native" backend)
//   - BildBackend: github.com/anthonynsimon/bild transform with linear
//     resampling
//
// # Resize Semantics
//
// Backends fit the image inside a box while preserving aspect ratio. A
// resize directive constrains a single axis, so callers pass UnboundedSide
// for the other one:
//
//	// 300x200 -> 200x133
//	out, err := backend.Resize(data, "photo.jpg", 200, imaging.UnboundedSide)
//
// Fitting may upscale. The no-zoom policy is enforced by the orchestrator,
// not here.
//
// # Formats
//
// PNG, JPEG, and GIF are supported. The output format matches the input,
// determined by sniffing the content (github.com/gabriel-vasile/mimetype)
// and falling back to the file extension. JPEG output uses
// DefaultJPEGQuality unless the backend is configured otherwise.
//
// EXIF orientation is ignored: both backends resize the stored pixel grid,
// the same grid Probe reports. Animated GIFs are reduced to their first
// frame.
//
// # Thread Safety
//
// Backends are stateless after construction and may be called concurrently.
package imaging
