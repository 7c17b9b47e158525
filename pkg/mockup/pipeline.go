// Package mockup produces product mockups: it resolves the placement template,
// renders the design, centres it on the base photo and writes the result to the
// temporary-output area.
//
// A run either returns a usable file location or a single *Error. Fatal
// failures never leave files behind; object-level problems only produce
// warnings.
package mockup

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/generator"
	"github.com/xob0t/GoMockup/pkg/publish"
	"github.com/xob0t/GoMockup/pkg/render"
	"github.com/xob0t/GoMockup/pkg/scratch"
	"github.com/xob0t/GoMockup/pkg/template"
)

// Request asks for one mockup.
type Request struct {
	DesignData  []byte
	ProductID   string
	VariationID string
}

// Result locates a generated mockup.
type Result struct {
	Path     string   `json:"path"`
	URL      string   `json:"url"`
	Warnings []string `json:"warnings"`
}

// Options configures a Pipeline. Templates, Rasterizer and Area are required.
type Options struct {
	Templates    template.Store
	Rasterizer   *render.Rasterizer
	Area         *scratch.Area
	Publisher    publish.Publisher // default: Local with an empty base URL
	Filter       imaging.ResampleFilter
	MaxDimension int
	Format       string // output extension, default "png"
	Encoder      generator.Config
	Timeout      time.Duration // per request; 0 means none
	Concurrency  int           // GenerateBatch workers, default 4
	Logger       *logrus.Entry
}

// Pipeline generates mockups. It holds only read-only state and serves
// concurrent requests.
type Pipeline struct {
	renderer    Renderer
	templates   template.Store
	area        *scratch.Area
	publisher   publish.Publisher
	format      string
	encoder     generator.Config
	timeout     time.Duration
	concurrency int
	log         *logrus.Entry
}

// New validates opts and builds a pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Templates == nil:
		return nil, errors.New("mockup: template store is required")
	case opts.Rasterizer == nil:
		return nil, errors.New("mockup: rasterizer is required")
	case opts.Area == nil:
		return nil, errors.New("mockup: temp area is required")
	}

	format := strings.TrimPrefix(strings.ToLower(opts.Format), ".")
	if format == "" {
		format = "png"
	}
	if _, err := generator.Format(format); err != nil {
		return nil, fmt.Errorf("mockup: %w", err)
	}

	p := &Pipeline{
		renderer: Renderer{
			Rasterizer:   opts.Rasterizer,
			Filter:       opts.Filter,
			MaxDimension: opts.MaxDimension,
		},
		templates:   opts.Templates,
		area:        opts.Area,
		publisher:   opts.Publisher,
		format:      format,
		encoder:     opts.Encoder,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
	}
	if p.publisher == nil {
		p.publisher = publish.Local{}
	}
	if p.concurrency <= 0 {
		p.concurrency = 4
	}
	if p.log == nil {
		p.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return p, nil
}

// Templates returns the template store the pipeline resolves against.
func (p *Pipeline) Templates() template.Store { return p.templates }

// Area returns the temporary-output area.
func (p *Pipeline) Area() *scratch.Area { return p.area }

// Rasterizer returns the shared rasterizer.
func (p *Pipeline) Rasterizer() *render.Rasterizer { return p.renderer.Rasterizer }

// Generate runs one request end to end: TemplateLookup, Rasterize, Transform,
// Composite, then Saved. Every returned error is an *Error.
func (p *Pipeline) Generate(ctx context.Context, req Request) (res *Result, err error) {
	log := p.log.WithFields(logrus.Fields{
		"request_id":   uuid.NewString(),
		"product_id":   req.ProductID,
		"variation_id": req.VariationID,
	})

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	stage := StageTemplateLookup
	defer func() {
		if v := recover(); v != nil {
			res, err = nil, newError(KindComposite, stage, "generation failed", fmt.Errorf("panic: %v", v))
		}
		if err != nil || res == nil {
			log.WithError(err).WithFields(logrus.Fields{
				"stage": StageOf(err),
				"kind":  KindOf(err),
			}).Error("Mockup generation failed")
			return
		}
		log.WithFields(logrus.Fields{
			"stage":    StageSaved,
			"path":     res.Path,
			"warnings": len(res.Warnings),
			"duration": time.Since(start),
		}).Info("Mockup generated")
	}()

	// TemplateLookup
	log.WithField("stage", stage).Debug("Stage started")
	rec, err := template.Resolve(ctx, p.templates, req.ProductID, req.VariationID)
	if err != nil {
		switch {
		case errors.Is(err, template.ErrNotFound):
			return nil, newError(KindTemplateNotFound, StageTemplateLookup, "no usable template", err)
		case ctx.Err() != nil:
			return nil, ctxError(StageTemplateLookup, ctx.Err())
		default:
			return nil, newError(KindIO, StageTemplateLookup, "template store", err)
		}
	}

	out, warnings, err := p.renderer.render(ctx, log, req.DesignData, rec.Placement, func() (image.Image, error) {
		return loadBase(rec.BasePath)
	})
	if err != nil {
		return nil, err
	}

	stage = StageSaved
	path, url, err := p.save(ctx, log, out)
	if err != nil {
		return nil, err
	}

	if warnings == nil {
		warnings = []string{}
	}
	return &Result{Path: path, URL: url, Warnings: warnings}, nil
}

func loadBase(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(KindTemplateNotFound, StageComposite, "base image disappeared", err)
		}
		return nil, err
	}
	return img, nil
}

// save encodes img into the temp area and publishes it. Nothing is left on
// disk when it fails.
func (p *Pipeline) save(ctx context.Context, log *logrus.Entry, img image.Image) (string, string, error) {
	if err := checkCtx(ctx, StageSaved); err != nil {
		return "", "", err
	}
	log.WithField("stage", StageSaved).Debug("Stage started")

	f, err := p.area.Create(p.format)
	if err != nil {
		return "", "", newError(KindIO, StageSaved, "create output file", err)
	}
	defer f.Discard()

	if err := generator.Encode(f, p.format, img, p.encoder); err != nil {
		return "", "", newError(KindIO, StageSaved, "write output file", err)
	}
	if err := checkCtx(ctx, StageSaved); err != nil {
		return "", "", err
	}

	path, err := f.Commit()
	if err != nil {
		return "", "", newError(KindIO, StageSaved, "commit output file", err)
	}

	url, err := p.publisher.Publish(ctx, path, f.Name())
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.WithError(rmErr).WithField("path", path).Warn("Failed to remove unpublished mockup")
		}
		if ctx.Err() != nil {
			return "", "", ctxError(StageSaved, ctx.Err())
		}
		return "", "", newError(KindIO, StageSaved, "publish output file", err)
	}

	return path, url, nil
}
