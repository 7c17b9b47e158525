package generator

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_FormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	img := NewSolidImage(8, 6, color.NRGBA{10, 200, 30, 255})

	for _, name := range []string{"a.png", "b.jpg", "c.JPEG", "d.bmp", "e.tiff", "f.gif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Generate(path, img, Config{}))

			got, err := imaging.Open(path)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 8, 6), got.Bounds())
		})
	}
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	err := Generate(path, NewSolidImage(1, 1, color.White), Config{})
	assert.ErrorContains(t, err, "unsupported format")
	assert.NoFileExists(t, path)
}

func TestEncode_PNGIsLossless(t *testing.T) {
	img := NewSolidImage(3, 3, color.NRGBA{1, 2, 3, 128})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, ".png", img, Config{}))

	got, err := imaging.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, imaging.Clone(got).Pix)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 128, 0, 255}, c)

	c, err = ParseColor("random")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.A)

	_, err = ParseColor("#12345")
	assert.Error(t, err)
}
