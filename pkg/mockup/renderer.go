// renderer.go — The in-memory stages: rasterize, transform, composite.
package mockup

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/design"
	"github.com/xob0t/GoMockup/pkg/placement"
	"github.com/xob0t/GoMockup/pkg/render"
)

// maxPlacedPixels bounds the design image after placement transforms.
const maxPlacedPixels = 1 << 26

// Renderer turns design JSON into a composited mockup image without touching
// the filesystem. It is safe for concurrent use.
type Renderer struct {
	Rasterizer   *render.Rasterizer
	Filter       imaging.ResampleFilter // placement scaling
	MaxDimension int                    // canvas size limit, 0 means design.DefaultMaxDimension
}

// Render parses designData, flattens it, applies spec and centres the result
// on base. Object-level problems come back as warnings.
func (r *Renderer) Render(ctx context.Context, designData []byte, base image.Image, spec placement.Spec) (image.Image, []string, error) {
	return r.render(ctx, logrus.NewEntry(logrus.StandardLogger()), designData, spec, func() (image.Image, error) {
		return base, nil
	})
}

// render runs the stages; loadBase is called in the composite stage. A panic
// in any stage comes back as a composite error for that stage.
func (r *Renderer) render(ctx context.Context, log *logrus.Entry, designData []byte, spec placement.Spec, loadBase func() (image.Image, error)) (out image.Image, warnings []string, err error) {
	stage := StageRasterize
	defer func() {
		if v := recover(); v != nil {
			out, err = nil, newError(KindComposite, stage, "render failed", fmt.Errorf("panic: %v", v))
		}
	}()

	// Rasterize
	log.WithField("stage", stage).Debug("Stage started")

	doc, err := design.ParseLimit(designData, r.MaxDimension)
	if err != nil {
		return nil, nil, newError(KindParse, StageRasterize, "invalid design", err)
	}

	for _, d := range doc.Dropped {
		log.WithFields(logrus.Fields{"object_index": d.Index, "object_type": d.Type}).Warn(d.Reason)
		warnings = append(warnings, d.String())
	}

	canvas, objWarnings, err := r.Rasterizer.Compose(ctx, doc)
	for _, w := range objWarnings {
		warnings = append(warnings, w.String())
	}
	if err != nil {
		return nil, warnings, ctxError(StageRasterize, err)
	}

	// Transform
	if err := checkCtx(ctx, StageTransform); err != nil {
		return nil, warnings, err
	}
	stage = StageTransform
	log.WithField("stage", stage).Debug("Stage started")
	if w, h := placement.OutputSize(canvas.Bounds().Dx(), canvas.Bounds().Dy(), spec); !(w*h <= maxPlacedPixels) {
		return nil, warnings, newError(KindComposite, StageTransform, "placement too large", fmt.Errorf("design would be %.0fx%.0f", w, h))
	}
	transformed := placement.Transform(canvas, spec, r.Filter)

	// Composite
	if err := checkCtx(ctx, StageComposite); err != nil {
		return nil, warnings, err
	}
	stage = StageComposite
	log.WithField("stage", stage).Debug("Stage started")

	base, err := loadBase()
	if err != nil {
		var me *Error
		if errors.As(err, &me) {
			return nil, warnings, err
		}
		return nil, warnings, newError(KindComposite, StageComposite, "unreadable base image", err)
	}

	out, err = Composite(base, transformed)
	if err != nil {
		return nil, warnings, newError(KindComposite, StageComposite, "composite failed", err)
	}

	return out, warnings, nil
}

func checkCtx(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return ctxError(stage, err)
	}
	return nil
}

func ctxError(stage Stage, err error) error {
	return newError(KindTimeout, stage, "generation interrupted", err)
}
