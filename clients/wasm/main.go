//go:build js && wasm

// GoMockup WASM — In-browser mockup preview.
// Compiled with: GOOS=js GOARCH=wasm go build -o gomockup.wasm ./clients/wasm/
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"sync"
	"syscall/js"

	"github.com/disintegration/imaging"

	"github.com/xob0t/GoMockup/pkg/generator"
	"github.com/xob0t/GoMockup/pkg/mockup"
	"github.com/xob0t/GoMockup/pkg/placement"
	"github.com/xob0t/GoMockup/pkg/render"
)

// assetPrefix marks image sources registered with goRegisterAsset.
const assetPrefix = "asset:"

// In-memory asset store standing in for the server's filesystem.
var (
	assetsMu sync.RWMutex
	assets   = make(map[string][]byte)
)

// assetSources resolves "asset:<id>" sources from memory and everything else
// (data URIs, URLs) with the regular loader.
type assetSources struct {
	fallback render.SourceLoader
}

func (s assetSources) Load(ctx context.Context, src string) (image.Image, error) {
	id, ok := strings.CutPrefix(src, assetPrefix)
	if !ok {
		return s.fallback.Load(ctx, src)
	}

	assetsMu.RLock()
	data, found := assets[id]
	assetsMu.RUnlock()
	if !found {
		return nil, fmt.Errorf("asset %q is not registered", id)
	}
	return render.DecodeImage(data, render.DefaultMaxSourcePixels)
}

var renderer *mockup.Renderer

func main() {
	r, err := render.NewRasterizer(render.Options{
		Sources: assetSources{fallback: render.NewSources("", 0, 0)},
		Filter:  imaging.Lanczos,
	})
	if err != nil {
		fmt.Println("GoMockup WASM failed to start:", err)
		return
	}
	renderer = &mockup.Renderer{Rasterizer: r, Filter: imaging.Lanczos}

	fmt.Println("GoMockup WASM loaded")

	// Register JS-callable functions.
	js.Global().Set("goRenderMockup", js.FuncOf(renderMockup))
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// goRegisterAsset(id, base64Data) — store an image for "asset:<id>" sources.
func registerAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need id, base64Data")
	}

	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}

	assetsMu.Lock()
	assets[args[0].String()] = data
	assetsMu.Unlock()

	return js.ValueOf("ok")
}

// goRemoveAsset(id) — remove an asset from Go memory.
func removeAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	assetsMu.Lock()
	delete(assets, args[0].String())
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// goRenderMockup(designJSON, baseImageBase64, placementJSON) — render and
// return a base64 PNG. Warnings are written to the console.
func renderMockup(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need designJSON, baseImageBase64")
	}

	baseData, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base image: " + err.Error())
	}
	base, err := render.DecodeImage(baseData, render.DefaultMaxSourcePixels)
	if err != nil {
		return js.ValueOf("error: decode base image: " + err.Error())
	}

	var spec placement.Spec
	if len(args) > 2 && args[2].Type() == js.TypeString && args[2].String() != "" {
		if err := json.Unmarshal([]byte(args[2].String()), &spec); err != nil {
			return js.ValueOf("error: parse placement: " + err.Error())
		}
	}

	out, warnings, err := renderer.Render(context.Background(), []byte(args[0].String()), base, spec)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	for _, w := range warnings {
		fmt.Println("warning:", w)
	}

	var buf bytes.Buffer
	if err := generator.Encode(&buf, "png", out, generator.Config{}); err != nil {
		return js.ValueOf("error: encode: " + err.Error())
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(buf.Bytes()))
}
