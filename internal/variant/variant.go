// Package variant describes the resize variants requested for images and
// accumulates them across the text assets of a single pipeline run.
package variant

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
)

// Axis is the dimension constrained by a resize directive.
type Axis string

const (
	// AxisNone marks a reference that asked for the original image.
	AxisNone Axis = "none"
	// AxisWidth constrains the image width.
	AxisWidth Axis = "w"
	// AxisHeight constrains the image height.
	AxisHeight Axis = "h"
)

// ParseAxis converts a directive letter ("w", "h", case-insensitive) to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "w", "W":
		return AxisWidth, nil
	case "h", "H":
		return AxisHeight, nil
	case "", string(AxisNone):
		return AxisNone, nil
	}
	return "", fmt.Errorf("unknown resize axis %q", s)
}

// Variant is a single (axis, target) pair. The zero target is only valid
// together with AxisNone.
type Variant struct {
	Axis   Axis
	Target int
}

// Original is the variant that asks for the image unchanged.
var Original = Variant{Axis: AxisNone}

// IsResize reports whether the variant requests an actual resize.
func (v Variant) IsResize() bool {
	return v.Axis != AxisNone && v.Target > 0
}

// Suffix returns the "<target><axis>" token used in synthesized filenames,
// e.g. "200w". It is empty for the original variant.
func (v Variant) Suffix() string {
	if !v.IsResize() {
		return ""
	}
	return strconv.Itoa(v.Target) + string(v.Axis)
}

func (v Variant) String() string {
	if !v.IsResize() {
		return string(AxisNone)
	}
	return v.Suffix()
}

// Filename inserts the variant suffix before the extension of an OS path:
// "img/logo.png" with 200w becomes "img/logo-200w.png".
func Filename(p string, v Variant) string {
	if !v.IsResize() {
		return p
	}
	ext := filepath.Ext(p)
	base := filepath.Base(p)
	return filepath.Join(filepath.Dir(p), base[:len(base)-len(ext)]+"-"+v.Suffix()+ext)
}

// FilenameSlash is Filename for slash-separated paths as they appear in text
// content. Surrounding segments are kept, "./" prefixes are cleaned away.
func FilenameSlash(p string, v Variant) string {
	if !v.IsResize() {
		return p
	}
	ext := path.Ext(p)
	base := path.Base(p)
	return path.Join(path.Dir(p), base[:len(base)-len(ext)]+"-"+v.Suffix()+ext)
}
