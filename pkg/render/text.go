// text.go — Text objects. The ink bounding box of the (rotated) text is what
// gets placed at the object's left/top, not the baseline origin.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/xob0t/GoMockup/pkg/design"
	"github.com/xob0t/GoMockup/pkg/placement"
)

// drawText renders t onto canvas. Empty text draws nothing.
func (r *Rasterizer) drawText(canvas *image.RGBA, t *design.Text) error {
	if strings.TrimSpace(t.Text) == "" {
		return nil
	}
	if !(t.FontSize > 0) || t.FontSize > maxFontSize {
		return fmt.Errorf("font size must be in (0, %d], got %v", maxFontSize, t.FontSize)
	}

	fill, err := design.ParseHexColor(t.Fill)
	if err != nil {
		return err
	}

	face, err := r.fonts.Face(t.FontFamily, t.FontSize)
	if err != nil {
		return err
	}
	defer face.Close()

	block, err := renderTextBlock(face, t.Text, t.FontSize*lineHeight(t.LineHeight), t.TextAlign, fill)
	if err != nil || block == nil {
		return err
	}

	rotated := placement.Rotate(block, t.Angle)
	drawAt(canvas, rotated, t.Left, t.Top, draw.Over)
	return nil
}

const (
	maxFontSize   = 2048
	maxTextExtent = 1 << 20 // pixels, on either axis
)

func lineHeight(v float64) float64 {
	if !(v > 0) || v > 10 {
		return design.DefaultLineHeight
	}
	return v
}

type textLine struct {
	text    string
	bounds  fixed.Rectangle26_6
	advance fixed.Int26_6
}

// renderTextBlock draws text into the smallest transparent image holding its
// ink. Lines are split on '\n', spaced lineStep pixels apart and aligned within
// the widest line. It returns nil when nothing would be inked, and an error
// when the ink box is larger than maxObjectPixels.
func renderTextBlock(face font.Face, text string, lineStep float64, align string, fill color.Color) (*image.RGBA, error) {
	text = norm.NFC.String(strings.ReplaceAll(text, "\r\n", "\n"))

	// Estimate the extent before measuring so 26.6 sums cannot wrap.
	em := float64(face.Metrics().Height.Ceil())
	split := strings.Split(text, "\n")
	if float64(len(split))*lineStep > maxTextExtent {
		return nil, fmt.Errorf("text block too tall (%d lines)", len(split))
	}
	for _, s := range split {
		if float64(utf8.RuneCountInString(s))*em > maxTextExtent {
			return nil, fmt.Errorf("text line too long (%d characters)", utf8.RuneCountInString(s))
		}
	}

	var (
		lines  []textLine
		widest fixed.Int26_6
	)
	for _, s := range split {
		b, adv := font.BoundString(face, s)
		lines = append(lines, textLine{text: s, bounds: b, advance: adv})
		widest = max(widest, adv)
	}

	step := fixed.Int26_6(lineStep * 64)
	origins := make([]fixed.Point26_6, len(lines))

	var ink fixed.Rectangle26_6
	for i, l := range lines {
		var dx fixed.Int26_6
		switch align {
		case "center":
			dx = (widest - l.advance) / 2
		case "right":
			dx = widest - l.advance
		}
		origins[i] = fixed.Point26_6{X: dx, Y: step * fixed.Int26_6(i)}

		if l.bounds.Empty() {
			continue
		}
		ink = ink.Union(l.bounds.Add(origins[i]))
	}

	if ink.Empty() {
		return nil, nil
	}

	minX, minY := ink.Min.X.Floor(), ink.Min.Y.Floor()
	w, h := ink.Max.X.Ceil()-minX, ink.Max.Y.Ceil()-minY
	if err := checkPixels("text block", w, h); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fill),
		Face: face,
	}
	shift := fixed.Point26_6{X: fixed.I(minX), Y: fixed.I(minY)}
	for i, l := range lines {
		d.Dot = origins[i].Sub(shift)
		d.DrawString(l.text)
	}

	return dst, nil
}
