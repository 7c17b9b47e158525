// compose.go — Flatten every object of a document into one canvas.
package render

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/design"
)

// Warning reports an object that was skipped. The rest of the design renders.
type Warning struct {
	Index int
	Type  string
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("object %d (%s) skipped: %v", w.Index, w.Type, w.Err)
}

// Compose allocates a transparent canvas of the document's size and paints the
// objects on it in order. Objects that fail are skipped and reported; the
// canvas is returned even when every object failed. The only error is a
// cancelled or expired ctx.
func (r *Rasterizer) Compose(ctx context.Context, doc *design.Document) (*image.RGBA, []Warning, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, doc.CanvasWidth, doc.CanvasHeight))

	var warnings []Warning
	for i, obj := range doc.Objects {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		if err := r.rasterizeObject(ctx, obj, canvas); err != nil {
			w := Warning{Index: i, Type: objectType(obj), Err: err}
			r.log.WithFields(logrus.Fields{
				"object_index": i,
				"object_type":  w.Type,
			}).WithError(err).Warn("Skipping object")
			warnings = append(warnings, w)
		}
	}

	return canvas, warnings, nil
}

// rasterizeObject turns a panic while drawing one object into its error.
func (r *Rasterizer) rasterizeObject(ctx context.Context, obj design.Object, canvas *image.RGBA) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("render failed: %v", v)
		}
	}()
	return r.Rasterize(ctx, obj, canvas)
}

func objectType(obj design.Object) string {
	if u, ok := obj.(*design.Unknown); ok && u.Type != "" {
		return u.Type
	}
	return string(obj.Kind())
}
