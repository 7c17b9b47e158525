// parser.go — Decode untrusted design JSON into a Document.
package design

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// ParseError reports a design that cannot be used at all.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse design: %s: %v", e.Reason, e.Err)
	}
	return "parse design: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

type rawDocument struct {
	CanvasWidth  *float64          `json:"canvasWidth"`
	CanvasHeight *float64          `json:"canvasHeight"`
	Objects      []json.RawMessage `json:"objects"`
}

type rawObject struct {
	Type  string   `json:"type"`
	Left  *float64 `json:"left"`
	Top   *float64 `json:"top"`
	Angle float64  `json:"angle"`

	Text       string          `json:"text"`
	FontFamily string          `json:"fontFamily"`
	FontSize   *float64        `json:"fontSize"`
	Fill       json.RawMessage `json:"fill"`
	LineHeight *float64        `json:"lineHeight"`
	TextAlign  string          `json:"textAlign"`

	Src    string   `json:"src"`
	ScaleX *float64 `json:"scaleX"`
	ScaleY *float64 `json:"scaleY"`
	FlipX  bool     `json:"flipX"`
	FlipY  bool     `json:"flipY"`
}

// Parse decodes a design document using DefaultMaxDimension.
func Parse(raw []byte) (*Document, error) {
	return ParseLimit(raw, DefaultMaxDimension)
}

// ParseLimit decodes a design document. The document fails as a whole when the
// input is not valid JSON or the canvas size is missing, non-positive or larger
// than maxDimension. Single objects that are malformed or lack left/top are
// dropped and listed in Document.Dropped. Unknown fields are ignored.
func ParseLimit(raw []byte, maxDimension int) (*Document, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ParseError{Reason: "empty input"}
	}

	var rd rawDocument
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, &ParseError{Reason: "malformed JSON", Err: err}
	}

	w, err := dimension("canvasWidth", rd.CanvasWidth, maxDimension)
	if err != nil {
		return nil, err
	}
	h, err := dimension("canvasHeight", rd.CanvasHeight, maxDimension)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		CanvasWidth:  w,
		CanvasHeight: h,
		Objects:      make([]Object, 0, len(rd.Objects)),
	}

	for i, msg := range rd.Objects {
		obj, dropped := parseObject(i, msg)
		if dropped != nil {
			doc.Dropped = append(doc.Dropped, *dropped)
			continue
		}
		doc.Objects = append(doc.Objects, obj)
	}

	return doc, nil
}

// dimension validates a canvas size field. Fractional sizes are rounded.
func dimension(name string, v *float64, maxDimension int) (int, error) {
	if v == nil {
		return 0, &ParseError{Reason: name + " is required"}
	}
	n := math.Round(*v)
	if n < 1 {
		return 0, &ParseError{Reason: fmt.Sprintf("%s must be positive, got %v", name, *v)}
	}
	if n > float64(maxDimension) {
		return 0, &ParseError{Reason: fmt.Sprintf("%s %v exceeds limit %d", name, *v, maxDimension)}
	}
	return int(n), nil
}

// parseObject decodes one element of the objects array.
func parseObject(index int, msg json.RawMessage) (Object, *Dropped) {
	var ro rawObject
	if err := json.Unmarshal(msg, &ro); err != nil {
		return nil, &Dropped{Index: index, Reason: fmt.Sprintf("malformed object: %v", err)}
	}

	if ro.Left == nil || ro.Top == nil {
		return nil, &Dropped{Index: index, Type: ro.Type, Reason: "left and top are required"}
	}

	geom := Geometry{Left: *ro.Left, Top: *ro.Top, Angle: ro.Angle}

	switch ro.Type {
	case "text", "i-text", "textbox":
		return &Text{
			Geometry:   geom,
			Text:       ro.Text,
			FontFamily: ro.FontFamily,
			FontSize:   orDefault(ro.FontSize, DefaultFontSize),
			Fill:       fillString(ro.Fill),
			LineHeight: orDefault(ro.LineHeight, DefaultLineHeight),
			TextAlign:  ro.TextAlign,
		}, nil
	case "image":
		return &Image{
			Geometry: geom,
			Src:      ro.Src,
			ScaleX:   orDefault(ro.ScaleX, 1),
			ScaleY:   orDefault(ro.ScaleY, 1),
			FlipX:    ro.FlipX,
			FlipY:    ro.FlipY,
		}, nil
	default:
		return &Unknown{Geometry: geom, Type: ro.Type}, nil
	}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// fillString returns the fill as a string. Non-string fills (gradients,
// patterns) are kept verbatim so that colour parsing rejects the object when
// it is drawn rather than here.
func fillString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultFill
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}
