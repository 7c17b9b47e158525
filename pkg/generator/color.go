// color.go — Colour parsing for generated images and solid fills.
package generator

import (
	"crypto/rand"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/xob0t/GoMockup/pkg/design"
)

// ParseColor parses "#rgb", "#rrggbb" or "random". Empty means "random".
func ParseColor(s string) (color.NRGBA, error) {
	if s == "" || s == "random" {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return color.NRGBA{}, fmt.Errorf("random color: %w", err)
		}
		return color.NRGBA{buf[0], buf[1], buf[2], 255}, nil
	}
	return design.ParseHexColor(s)
}

// NewSolidImage creates a w x h image filled with c.
func NewSolidImage(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}
