package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoMockup/pkg/mockup"
	"github.com/xob0t/GoMockup/pkg/placement"
	"github.com/xob0t/GoMockup/pkg/publish"
	"github.com/xob0t/GoMockup/pkg/render"
	"github.com/xob0t/GoMockup/pkg/scratch"
	"github.com/xob0t/GoMockup/pkg/store/memory"
	"github.com/xob0t/GoMockup/pkg/template"
)

const design = `{"canvasWidth":100,"canvasHeight":100,"objects":[{"type":"text","left":5,"top":5,"fontSize":20,"fill":"#f00","text":"OK"}]}`

func newTestRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	dir := t.TempDir()

	base := filepath.Join(dir, "tee.png")
	require.NoError(t, imaging.Save(imaging.New(200, 200, color.White), base))

	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), &template.Record{ProductID: "tee", BasePath: base}))

	r, err := render.NewRasterizer(render.Options{})
	require.NoError(t, err)
	area, err := scratch.NewArea(filepath.Join(dir, "out"))
	require.NoError(t, err)

	p, err := mockup.New(mockup.Options{
		Templates:  store,
		Rasterizer: r,
		Area:       area,
		Publisher:  publish.Local{BaseURL: "http://example.test/mockups"},
	})
	require.NoError(t, err)

	return NewRouter(p), base
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestGenerate_ObjectDesign(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/mockups", map[string]any{
		"design":    json.RawMessage(design),
		"productId": "tee",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res mockup.Result
	decode(t, rec, &res)
	name := filepath.Base(res.Path)
	assert.Equal(t, "http://example.test/mockups/"+name, res.URL)
	assert.NotNil(t, res.Warnings)

	file := do(t, h, http.MethodGet, "/mockups/"+name, nil)
	require.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, "image/png", file.Header().Get("Content-Type"))

	img, err := imaging.Decode(file.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestGenerate_StringDesign(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/mockups", map[string]any{
		"design":    design,
		"productId": "tee",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestGenerate_Errors(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name   string
		body   any
		status int
		kind   string
	}{
		{"parse", map[string]any{"design": `{"canvasHeight":10}`, "productId": "tee"}, http.StatusBadRequest, "parse"},
		{"missing design", map[string]any{"productId": "tee"}, http.StatusBadRequest, "parse"},
		{"template", map[string]any{"design": design, "productId": "mug"}, http.StatusNotFound, "template_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/mockups", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var e errorResponse
			decode(t, rec, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.NotEmpty(t, e.Message)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/mockups", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatch(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/mockups/batch", map[string]any{
		"items": []map[string]any{
			{"design": design, "productId": "tee"},
			{"productId": "tee"},
			{"design": design, "productId": "mug"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []batchItem `json:"results"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Results, 3)
	assert.NotEmpty(t, body.Results[0].URL)
	assert.Equal(t, "parse", body.Results[1].Kind)
	assert.Equal(t, "template_not_found", body.Results[2].Kind)
}

func TestMockupFile_RejectsPaths(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/mockups/mockup-none.png", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/mockups/..", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/mockups/.hidden.part", nil).Code)
}

func TestTemplatesCRUD(t *testing.T) {
	h, base := newTestRouter(t)

	rec := do(t, h, http.MethodPut, "/api/templates/mug", template.Record{
		BasePath:  base,
		Placement: placement.Spec{Scale: placement.Float(0.5)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var put struct {
		Template template.Record `json:"template"`
		Warnings []string        `json:"warnings"`
	}
	decode(t, rec, &put)
	assert.Equal(t, "mug", put.Template.ProductID)
	assert.Empty(t, put.Warnings)

	rec = do(t, h, http.MethodPut, "/api/templates/mug/variations/red", template.Record{
		ProductID: "ignored",
		Placement: placement.Spec{Scale: placement.Float(-1)},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &put)
	assert.Equal(t, "red", put.Template.VariationID)
	assert.Equal(t, "mug", put.Template.ProductID)
	assert.Len(t, put.Warnings, 1)

	rec = do(t, h, http.MethodGet, "/api/templates/mug/variations/red", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []template.Record
	decode(t, rec, &list)
	assert.Len(t, list, 3)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/templates/mug/variations/red", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/templates/mug/variations/red", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/templates/nope", nil).Code)
}

func TestFonts(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/fonts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Default string   `json:"default"`
		Fonts   []string `json:"fonts"`
	}
	decode(t, rec, &body)
	assert.Equal(t, render.DefaultFontKey, body.Default)
	assert.Contains(t, body.Fonts, "Go-Mono")
}

func TestPackage(t *testing.T) {
	h, _ := newTestRouter(t)

	gen := do(t, h, http.MethodPost, "/api/mockups", map[string]any{"design": design, "productId": "tee"})
	require.Equal(t, http.StatusOK, gen.Code)
	var res mockup.Result
	decode(t, gen, &res)

	rec := do(t, h, http.MethodPost, "/api/packages", map[string]any{"design": design, "mockup": res.URL})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"design.json", "preview.png", "README.txt"}, names)
}
