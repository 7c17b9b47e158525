// Package placement applies a template's placement rules to a flattened design
// image and provides the rotate/resize primitives shared with the rasterizer.
//
// Placement rotation is in degrees and counter-clockwise for positive values,
// as in GD's imagerotate; object angles (Rotate) are clockwise. Rotation grows
// the image so that no corner is clipped; uncovered pixels are transparent.
// When both rotation and scale are set, the image is rotated first and then
// scaled.
package placement

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// Spec holds the optional placement transforms of a template. A nil field means
// "no transform".
type Spec struct {
	Rotation *float64 `json:"rotation,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
}

// IsZero reports whether s applies no transform at all.
func (s Spec) IsZero() bool {
	return s.Rotation == nil && s.Scale == nil
}

// Merge returns s with every field set in over replacing the one in s.
func (s Spec) Merge(over Spec) Spec {
	if over.Rotation != nil {
		s.Rotation = over.Rotation
	}
	if over.Scale != nil {
		s.Scale = over.Scale
	}
	return s
}

// Float returns a pointer to v, for building specs.
func Float(v float64) *float64 { return &v }

// Transform applies spec to img: rotate counter-clockwise, then scale. A spec
// without transforms returns img unchanged.
func Transform(img image.Image, spec Spec, filter imaging.ResampleFilter) image.Image {
	out := img
	if spec.Rotation != nil {
		out = Rotate(out, -*spec.Rotation)
	}
	if spec.Scale != nil {
		out = Scale(out, *spec.Scale, filter)
	}
	return out
}

// OutputSize returns the size Transform would produce for a w x h image,
// before rounding. Callers use it to bound the allocation.
func OutputSize(w, h int, spec Spec) (float64, float64) {
	fw, fh := float64(w), float64(h)
	if spec.Rotation != nil {
		rad := *spec.Rotation * math.Pi / 180
		sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
		fw, fh = fw*cos+fh*sin, fw*sin+fh*cos
	}
	if s := spec.Scale; s != nil && *s > 0 && !math.IsInf(*s, 0) {
		fw, fh = fw**s, fh**s
	}
	return fw, fh
}

// Rotate turns img clockwise by deg degrees. Multiples of 90 degrees are exact
// pixel permutations; zero returns img unchanged.
func Rotate(img image.Image, deg float64) image.Image {
	deg = math.Mod(deg, 360)
	if deg == 0 {
		return img
	}
	// imaging rotates counter-clockwise.
	return imaging.Rotate(img, -deg, color.Transparent)
}

// Scale resizes img by factor on both axes, keeping the aspect ratio. Sides are
// rounded and never drop below one pixel. A factor of 1 or one that is not
// positive returns img unchanged.
func Scale(img image.Image, factor float64, filter imaging.ResampleFilter) image.Image {
	if factor <= 0 || factor == 1 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return img
	}
	b := img.Bounds()
	w := max(int(math.Round(float64(b.Dx())*factor)), 1)
	h := max(int(math.Round(float64(b.Dy())*factor)), 1)
	return Resize(img, w, h, filter)
}

// Resize resamples img to exactly w x h. The zero filter is imaging's
// nearest-neighbour.
func Resize(img image.Image, w, h int, filter imaging.ResampleFilter) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, filter)
}

// FilterByName maps a configuration name to a resample filter.
func FilterByName(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lanczos":
		return imaging.Lanczos, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "linear", "bilinear":
		return imaging.Linear, nil
	case "box":
		return imaging.Box, nil
	case "nearest", "nearestneighbor":
		return imaging.NearestNeighbor, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
}
