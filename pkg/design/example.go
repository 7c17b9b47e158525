// example.go — Sample design for gomockup init.
package design

// ExampleJSON returns a sample design document: a heading and a subtitle on a
// 600x800 canvas, the editor's default size.
func ExampleJSON() string {
	return `{
  "canvasWidth": 600,
  "canvasHeight": 800,
  "objects": [
    {
      "type": "text",
      "left": 60,
      "top": 80,
      "angle": 0,
      "fontSize": 64,
      "fontFamily": "OpenSans",
      "fill": "#1a1a2e",
      "text": "Hello"
    },
    {
      "type": "text",
      "left": 60,
      "top": 180,
      "angle": -8,
      "fontSize": 32,
      "fontFamily": "Go-Bold",
      "fill": "#e94560",
      "textAlign": "center",
      "text": "print on demand\npreview"
    }
  ]
}`
}
