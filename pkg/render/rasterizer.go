// Package render rasterizes design objects and flattens a design into one
// transparent RGBA canvas.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/design"
)

// errUnsupported marks objects whose type has no renderer.
var errUnsupported = errors.New("unsupported object type")

// Options configures a Rasterizer.
type Options struct {
	Fonts   *FontTable
	Sources SourceLoader
	Filter  imaging.ResampleFilter // image object resampling
	Logger  *logrus.Entry
}

// Rasterizer draws design objects. It holds only read-only state and may be
// shared between goroutines; each canvas must be used by one goroutine.
type Rasterizer struct {
	fonts   *FontTable
	sources SourceLoader
	filter  imaging.ResampleFilter
	log     *logrus.Entry
}

// NewRasterizer builds a rasterizer. Missing fonts or sources fall back to the
// built-in font table and an unrestricted Sources loader.
func NewRasterizer(opts Options) (*Rasterizer, error) {
	fonts := opts.Fonts
	if fonts == nil {
		var err error
		if fonts, err = NewFontTable("", ""); err != nil {
			return nil, err
		}
	}

	sources := opts.Sources
	if sources == nil {
		sources = NewSources("", 0, 0)
	}

	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Rasterizer{
		fonts:   fonts,
		sources: sources,
		filter:  opts.Filter,
		log:     log,
	}, nil
}

// Fonts returns the font table in use.
func (r *Rasterizer) Fonts() *FontTable { return r.fonts }

// Rasterize draws obj onto canvas in place. An error means the object was not
// drawn; the canvas is then left as it was for image objects and may hold
// nothing of the object for text objects.
func (r *Rasterizer) Rasterize(ctx context.Context, obj design.Object, canvas *image.RGBA) error {
	switch o := obj.(type) {
	case *design.Text:
		return r.drawText(canvas, o)
	case *design.Image:
		return r.drawImage(ctx, canvas, o)
	case *design.Unknown:
		return fmt.Errorf("%w %q", errUnsupported, o.Type)
	default:
		return fmt.Errorf("%w %T", errUnsupported, obj)
	}
}

// drawAt draws src with its top-left corner at (left, top), rounded to the
// nearest pixel. Anything outside canvas is clipped.
func drawAt(canvas *image.RGBA, src image.Image, left, top float64, op draw.Op) {
	sb := src.Bounds()
	pt := image.Pt(int(math.Round(left)), int(math.Round(top)))
	draw.Draw(canvas, image.Rectangle{Min: pt, Max: pt.Add(sb.Size())}, src, sb.Min, op)
}
