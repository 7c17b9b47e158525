// image.go — Image objects: fetch, flip, resample, rotate, then straight copy.
package render

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"github.com/xob0t/GoMockup/pkg/design"
	"github.com/xob0t/GoMockup/pkg/placement"
)

// maxObjectPixels bounds the resampled size of a single image object.
const maxObjectPixels = 1 << 25

// drawImage renders img onto canvas. Pixels in the object's footprint replace
// whatever was painted before, transparent ones included.
func (r *Rasterizer) drawImage(ctx context.Context, canvas *image.RGBA, obj *design.Image) error {
	src, err := r.sources.Load(ctx, obj.Src)
	if err != nil {
		return err
	}

	out := src
	if obj.FlipX != (obj.ScaleX < 0) {
		out = imaging.FlipH(out)
	}
	if obj.FlipY != (obj.ScaleY < 0) {
		out = imaging.FlipV(out)
	}

	w, h, err := scaledSize(out.Bounds(), obj.ScaleX, obj.ScaleY)
	if err != nil {
		return err
	}

	out = placement.Resize(out, w, h, r.filter)
	out = placement.Rotate(out, obj.Angle)

	drawAt(canvas, out, obj.Left, obj.Top, draw.Src)
	return nil
}

// scaledSize returns the pixel size of b scaled by |sx| x |sy|. Sizes are
// checked as floats so huge factors cannot overflow the conversion.
func scaledSize(b image.Rectangle, sx, sy float64) (int, int, error) {
	fw := math.Round(float64(b.Dx()) * math.Abs(sx))
	fh := math.Round(float64(b.Dy()) * math.Abs(sy))
	if math.IsNaN(fw) || math.IsNaN(fh) || fw < 1 || fh < 1 {
		return 0, 0, fmt.Errorf("scaled image is empty (scale %vx%v)", sx, sy)
	}
	if fw > maxObjectPixels || fh > maxObjectPixels || fw*fh > maxObjectPixels {
		return 0, 0, fmt.Errorf("scaled image too large (%.0fx%.0f)", fw, fh)
	}
	return int(fw), int(fh), nil
}

// checkPixels rejects a w x h buffer above maxObjectPixels without
// overflowing the product.
func checkPixels(what string, w, h int) error {
	if w < 1 || h < 1 {
		return nil
	}
	if w > maxObjectPixels/h {
		return fmt.Errorf("%s too large (%dx%d)", what, w, h)
	}
	return nil
}
