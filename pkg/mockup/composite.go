// composite.go — Centre a design on the base product photo.
package mockup

import (
	"errors"
	"image"
	"image/draw"
)

// Composite draws design centred on a copy of base using source-over blending.
// Parts of the design outside the base are clipped. The result keeps base's
// pixel type for RGBA, NRGBA, RGBA64 and NRGBA64 images; other types (JPEG's
// YCbCr, grayscale, paletted) become *image.RGBA so the design's colours are
// never reduced. base is not modified.
func Composite(base, design image.Image) (image.Image, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, errors.New("base image is empty")
	}
	if design == nil || design.Bounds().Empty() {
		return nil, errors.New("design image is empty")
	}

	bb, db := base.Bounds(), design.Bounds()
	dst := cloneBase(base)

	at := bb.Min.Add(Offset(bb.Size(), db.Size()))
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(db.Size())}, design, db.Min, draw.Over)

	return dst, nil
}

// Offset returns where Composite places a design of size d on a base of size
// b, relative to the base's origin. It is negative when the design is larger.
func Offset(b, d image.Point) image.Point {
	return image.Pt((b.X-d.X)/2, (b.Y-d.Y)/2)
}

func cloneBase(base image.Image) draw.Image {
	b := base.Bounds()

	var dst draw.Image
	switch base.(type) {
	case *image.NRGBA:
		dst = image.NewNRGBA(b)
	case *image.RGBA64:
		dst = image.NewRGBA64(b)
	case *image.NRGBA64:
		dst = image.NewNRGBA64(b)
	default:
		dst = image.NewRGBA(b)
	}

	draw.Draw(dst, b, base, b.Min, draw.Src)
	return dst
}
