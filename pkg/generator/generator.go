// Package generator writes finished raster images to files or streams.
//
// The output format follows the file extension: .png, .jpg/.jpeg, .gif,
// .tif/.tiff or .bmp.
package generator

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Config holds encoder parameters.
type Config struct {
	JPEGQuality int // 1-100, default 90
	Compression png.CompressionLevel
}

func (c Config) options() []imaging.EncodeOption {
	q := c.JPEGQuality
	if q <= 0 || q > 100 {
		q = 90
	}
	return []imaging.EncodeOption{
		imaging.JPEGQuality(q),
		imaging.PNGCompressionLevel(c.Compression),
	}
}

// Format maps an extension such as ".png" or "jpg" to an imaging format.
func Format(ext string) (imaging.Format, error) {
	f, err := imaging.FormatFromExtension(strings.TrimPrefix(strings.ToLower(ext), "."))
	if err != nil {
		return 0, fmt.Errorf("unsupported format %q: use png, jpg, gif, tiff or bmp", ext)
	}
	return f, nil
}

// Generate encodes img into the file at output, replacing it if it exists.
// The format is inferred from the file extension.
func Generate(output string, img image.Image, cfg Config) error {
	format, err := Format(filepath.Ext(output))
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}

	if err := imaging.Encode(f, img, format, cfg.options()...); err != nil {
		f.Close()
		os.Remove(output)
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return f.Close()
}

// Encode writes img to w in the format named by ext. This is useful for
// in-memory output (HTTP responses, WASM).
func Encode(w io.Writer, ext string, img image.Image, cfg Config) error {
	format, err := Format(ext)
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, format, cfg.options()...); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}
