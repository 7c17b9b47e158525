// handlers.go — HTTP handlers.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/mockup"
	"github.com/xob0t/GoMockup/pkg/template"
)

// ── Payloads ──

type generateRequest struct {
	Design      json.RawMessage `json:"design"`
	ProductID   string          `json:"productId"`
	VariationID string          `json:"variationId"`
}

type batchRequest struct {
	Items []generateRequest `json:"items"`
}

type batchItem struct {
	Path     string   `json:"path,omitempty"`
	URL      string   `json:"url,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type packageRequest struct {
	Design json.RawMessage `json:"design"`
	Mockup string          `json:"mockup"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// designBytes accepts the design either as a JSON object or as a JSON string
// holding the serialized object, which is how the editor posts it.
func designBytes(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("design is required")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return raw, nil
}

func (g generateRequest) toRequest() (mockup.Request, error) {
	data, err := designBytes(g.Design)
	if err != nil {
		return mockup.Request{}, err
	}
	return mockup.Request{DesignData: data, ProductID: g.ProductID, VariationID: g.VariationID}, nil
}

// ── Errors ──

func statusFor(kind mockup.Kind) int {
	switch kind {
	case mockup.KindParse:
		return http.StatusBadRequest
	case mockup.KindTemplateNotFound:
		return http.StatusNotFound
	case mockup.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Kind: kind, Message: msg})
}

func writeMockupError(w http.ResponseWriter, r *http.Request, err error) {
	kind := mockup.KindOf(err)
	if kind == "" {
		kind = mockup.KindIO
	}
	writeError(w, r, statusFor(kind), string(kind), err.Error())
}

// ── Mockups ──

func (s *srv) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *srv) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	req, err := body.toRequest()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, string(mockup.KindParse), err.Error())
		return
	}

	res, err := s.pipeline.Generate(r.Context(), req)
	if err != nil {
		writeMockupError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

func (s *srv) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	results := make([]batchItem, len(body.Items))
	var (
		reqs  []mockup.Request
		index []int
	)
	for i, item := range body.Items {
		req, err := item.toRequest()
		if err != nil {
			results[i] = batchItem{Kind: string(mockup.KindParse), Message: err.Error()}
			continue
		}
		reqs = append(reqs, req)
		index = append(index, i)
	}

	for j, out := range s.pipeline.GenerateBatch(r.Context(), reqs) {
		i := index[j]
		if out.Err != nil {
			kind := mockup.KindOf(out.Err)
			if kind == "" {
				kind = mockup.KindIO
			}
			results[i] = batchItem{Kind: string(kind), Message: out.Err.Error()}
			continue
		}
		results[i] = batchItem{Path: out.Result.Path, URL: out.Result.URL, Warnings: out.Result.Warnings}
	}

	render.JSON(w, r, map[string]any{"results": results})
}

func (s *srv) handleMockupFile(w http.ResponseWriter, r *http.Request) {
	p, err := s.pipeline.Area().Resolve(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, p)
}

func (s *srv) handlePackage(w http.ResponseWriter, r *http.Request) {
	var body packageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}
	data, err := designBytes(body.Design)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, string(mockup.KindParse), err.Error())
		return
	}

	// The mockup may be given as its URL or file name; only the name is used.
	var preview string
	if body.Mockup != "" {
		p, err := s.pipeline.Area().Resolve(path.Base(body.Mockup))
		if err == nil {
			if _, err := os.Stat(p); err == nil {
				preview = p
			}
		}
	}

	var buf bytes.Buffer
	if err := mockup.WritePackage(&buf, data, preview); err != nil {
		logrus.WithError(err).Error("Failed to build design package")
		writeError(w, r, http.StatusInternalServerError, string(mockup.KindIO), "failed to build package")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="design.zip"`)
	w.Write(buf.Bytes())
}

// ── Templates ──

func templateKey(r *http.Request) template.Key {
	return template.Key{
		ProductID:   chi.URLParam(r, "productId"),
		VariationID: chi.URLParam(r, "variationId"),
	}
}

func (s *srv) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	records, err := s.pipeline.Templates().List(r.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list templates")
		writeError(w, r, http.StatusInternalServerError, string(mockup.KindIO), "failed to list templates")
		return
	}
	if records == nil {
		records = []*template.Record{}
	}
	render.JSON(w, r, records)
}

func (s *srv) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	key := templateKey(r)
	rec, err := s.pipeline.Templates().Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, string(mockup.KindTemplateNotFound), err.Error())
			return
		}
		logrus.WithError(err).WithField("template", key.String()).Error("Failed to get template")
		writeError(w, r, http.StatusInternalServerError, string(mockup.KindIO), "failed to get template")
		return
	}
	render.JSON(w, r, rec)
}

func (s *srv) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var rec template.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	// The URL is authoritative for the key.
	key := templateKey(r)
	rec.ProductID, rec.VariationID = key.ProductID, key.VariationID

	if err := s.pipeline.Templates().Save(r.Context(), &rec); err != nil {
		logrus.WithError(err).WithField("template", key.String()).Error("Failed to save template")
		writeError(w, r, http.StatusBadRequest, "bad_request", fmt.Sprintf("save template: %v", err))
		return
	}

	warnings := template.Validate(&rec)
	if warnings == nil {
		warnings = []string{}
	}
	render.JSON(w, r, map[string]any{"template": rec, "warnings": warnings})
}

func (s *srv) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	key := templateKey(r)
	if err := s.pipeline.Templates().Delete(r.Context(), key); err != nil {
		if errors.Is(err, template.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, string(mockup.KindTemplateNotFound), err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, string(mockup.KindIO), "failed to delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Fonts ──

func (s *srv) handleFonts(w http.ResponseWriter, r *http.Request) {
	fonts := s.pipeline.Rasterizer().Fonts()
	render.JSON(w, r, map[string]any{
		"default": fonts.Default(),
		"fonts":   fonts.Keys(),
	})
}
