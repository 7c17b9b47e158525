// Package design holds the in-memory model of a canvas-editor design: a canvas
// size and an ordered list of drawable objects.
package design

import "fmt"

// Kind discriminates drawable object variants.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindUnknown Kind = "unknown"
)

// Defaults applied to fields the editor omitted.
const (
	DefaultFontSize   = 40.0
	DefaultFill       = "#000000"
	DefaultLineHeight = 1.16

	// DefaultMaxDimension bounds canvasWidth and canvasHeight.
	DefaultMaxDimension = 4096
)

// Document is a parsed design. It is read-only once built.
type Document struct {
	CanvasWidth  int
	CanvasHeight int
	Objects      []Object  // paint order: later objects paint on top
	Dropped      []Dropped // objects removed while parsing
}

// Geometry is shared by all drawable objects.
type Geometry struct {
	Left  float64 // canvas x of the object's top-left corner
	Top   float64 // canvas y of the object's top-left corner
	Angle float64 // degrees, clockwise
}

// Geom returns the object's geometry.
func (g Geometry) Geom() Geometry { return g }

// Object is one drawable element. The implementations are *Text, *Image and
// *Unknown; callers dispatch with a type switch.
type Object interface {
	Kind() Kind
	Geom() Geometry
	drawable()
}

// Text is a single- or multi-line text object.
type Text struct {
	Geometry
	Text       string
	FontFamily string // key into the font table; empty means the default font
	FontSize   float64
	Fill       string // "#RGB" or "#RRGGBB"
	LineHeight float64
	TextAlign  string // "left", "center" or "right"
}

// Image is a raster image object. Pixels are resolved from Src when drawn.
type Image struct {
	Geometry
	Src    string
	ScaleX float64
	ScaleY float64
	FlipX  bool
	FlipY  bool
}

// Unknown is an object whose type is not supported. It is kept so that the
// compositor can report it and move on.
type Unknown struct {
	Geometry
	Type string
}

func (*Text) Kind() Kind    { return KindText }
func (*Image) Kind() Kind   { return KindImage }
func (*Unknown) Kind() Kind { return KindUnknown }

func (*Text) drawable()    {}
func (*Image) drawable()   {}
func (*Unknown) drawable() {}

// Dropped records an object that could not be parsed.
type Dropped struct {
	Index  int
	Type   string
	Reason string
}

func (d Dropped) String() string {
	if d.Type == "" {
		return fmt.Sprintf("object %d dropped: %s", d.Index, d.Reason)
	}
	return fmt.Sprintf("object %d (%s) dropped: %s", d.Index, d.Type, d.Reason)
}
