// fonts.go — Font table keyed by family name, with embedded Go fonts as the
// guaranteed fallback. Parsed fonts are shared read-only; faces are created
// per draw because font.Face is not safe for concurrent use.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFontKey is used when no default family is configured.
const DefaultFontKey = "Go"

// builtinFonts are always present in every table.
var builtinFonts = map[string][]byte{
	"Go":        goregular.TTF,
	"Go-Bold":   gobold.TTF,
	"Go-Italic": goitalic.TTF,
	"Go-Mono":   gomono.TTF,
}

// FontTable maps font keys to parsed fonts. It is immutable after construction.
type FontTable struct {
	fonts      map[string]*opentype.Font
	defaultKey string
}

// NewFontTable loads every .ttf and .otf file in dir, keyed by file name
// without extension, on top of the built-in Go fonts. dir may be empty or
// missing. defaultKey always resolves: when no file backs it, Go Regular does.
func NewFontTable(dir, defaultKey string) (*FontTable, error) {
	if defaultKey == "" {
		defaultKey = DefaultFontKey
	}

	ft := &FontTable{
		fonts:      make(map[string]*opentype.Font),
		defaultKey: defaultKey,
	}

	for key, data := range builtinFonts {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin font %s: %w", key, err)
		}
		ft.fonts[key] = f
	}

	if dir != "" {
		ft.loadDir(dir)
	}

	if _, ok := ft.fonts[defaultKey]; !ok {
		logrus.WithField("font", defaultKey).Warn("Default font file not found, using embedded Go Regular")
		ft.fonts[defaultKey] = ft.fonts[DefaultFontKey]
	}

	return ft, nil
}

// loadDir adds fonts from dir. Unreadable or corrupt files are skipped.
func (ft *FontTable) loadDir(dir string) {
	log := logrus.WithField("dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).Warn("Could not read fonts directory, using embedded fonts only")
		return
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".ttf" && ext != ".otf" {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("file", e.Name()).Warn("Skipping unreadable font")
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			log.WithError(err).WithField("file", e.Name()).Warn("Skipping corrupt font")
			continue
		}

		ft.fonts[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = f
	}
}

// Default returns the key of the fallback font.
func (ft *FontTable) Default() string { return ft.defaultKey }

// Keys returns all font keys in sorted order.
func (ft *FontTable) Keys() []string {
	keys := make([]string, 0, len(ft.fonts))
	for k := range ft.fonts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the font for key, or the default font when key is empty or
// unknown. The boolean reports whether key itself was found.
func (ft *FontTable) Lookup(key string) (*opentype.Font, bool) {
	if f, ok := ft.fonts[key]; ok {
		return f, true
	}
	return ft.fonts[ft.defaultKey], false
}

// Face returns a new face for key at size pixels. The caller closes it.
func (ft *FontTable) Face(key string, size float64) (font.Face, error) {
	f, found := ft.Lookup(key)
	if !found && key != "" {
		logrus.WithFields(logrus.Fields{"font": key, "fallback": ft.defaultKey}).Debug("Unknown font, using default")
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}
