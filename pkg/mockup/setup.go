// setup.go — Wire a pipeline from runtime configuration.
package mockup

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/config"
	"github.com/xob0t/GoMockup/pkg/generator"
	"github.com/xob0t/GoMockup/pkg/placement"
	"github.com/xob0t/GoMockup/pkg/publish"
	"github.com/xob0t/GoMockup/pkg/render"
	"github.com/xob0t/GoMockup/pkg/scratch"
	"github.com/xob0t/GoMockup/pkg/store"
)

// NewRasterizer builds the rasterizer described by cfg: fonts from FontsDir,
// image sources limited to AssetsDir.
func NewRasterizer(cfg *config.Config) (*render.Rasterizer, error) {
	fonts, err := render.NewFontTable(cfg.FontsDir, cfg.DefaultFont)
	if err != nil {
		return nil, err
	}
	filter, err := placement.FilterByName(cfg.ResampleFilter)
	if err != nil {
		return nil, err
	}
	return render.NewRasterizer(render.Options{
		Fonts:   fonts,
		Sources: render.NewSources(cfg.AssetsDir, cfg.FetchTimeout, cfg.MaxSourceBytes),
		Filter:  filter,
	})
}

// FromConfig builds a pipeline with the template store, temp area and
// publisher named by cfg.
func FromConfig(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	templates, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	r, err := NewRasterizer(cfg)
	if err != nil {
		return nil, err
	}

	area, err := scratch.NewArea(cfg.TempDir)
	if err != nil {
		return nil, err
	}

	var pub publish.Publisher = publish.Local{BaseURL: cfg.TempURL}
	if cfg.S3Bucket != "" {
		if pub, err = publish.NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3PublicURL); err != nil {
			return nil, err
		}
		logrus.WithField("bucket", cfg.S3Bucket).Info("Publishing mockups to S3")
	}

	filter, err := placement.FilterByName(cfg.ResampleFilter)
	if err != nil {
		return nil, err
	}

	return New(Options{
		Templates:    templates,
		Rasterizer:   r,
		Area:         area,
		Publisher:    pub,
		Filter:       filter,
		MaxDimension: cfg.MaxCanvasDimension,
		Format:       cfg.OutputFormat,
		Encoder:      generator.Config{JPEGQuality: cfg.JPEGQuality},
		Timeout:      cfg.RequestTimeout,
		Concurrency:  cfg.BatchConcurrency,
	})
}
