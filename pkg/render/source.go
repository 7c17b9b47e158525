// source.go — Resolve image object sources (data URIs, http(s) URLs, local
// files) into decoded images.
package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxSourceBytes bounds the encoded size of a single image source.
	DefaultMaxSourceBytes = 5 << 20
	// DefaultMaxSourcePixels bounds its decoded size.
	DefaultMaxSourcePixels = 1 << 25
)

// SourceLoader fetches and decodes the pixels behind an image object's src.
type SourceLoader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// Sources is the default SourceLoader.
type Sources struct {
	// Root restricts local paths to a directory tree. Relative paths are
	// resolved against it. Empty means any readable path is allowed.
	Root     string
	Client    *http.Client
	MaxBytes  int64
	MaxPixels int
}

// NewSources returns a loader with the given root, fetch timeout and size limit.
func NewSources(root string, timeout time.Duration, maxBytes int64) *Sources {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sources{
		Root:     root,
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

// Load implements SourceLoader.
func (s *Sources) Load(ctx context.Context, src string) (image.Image, error) {
	data, err := s.read(ctx, strings.TrimSpace(src))
	if err != nil {
		return nil, err
	}

	maxPixels := s.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxSourcePixels
	}
	return DecodeImage(data, maxPixels)
}

// DecodeImage decodes data, honouring EXIF orientation. The header is read
// first so an image above maxPixels is rejected before its pixels are
// allocated.
func DecodeImage(data []byte, maxPixels int) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width < 1 || cfg.Height < 1 || cfg.Width > maxPixels/cfg.Height {
		return nil, fmt.Errorf("image dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (s *Sources) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, errors.New("image source is empty")
	case strings.HasPrefix(src, "data:"):
		return s.readDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return s.fetch(ctx, src)
	default:
		return s.readFile(strings.TrimPrefix(src, "file://"))
	}
}

func (s *Sources) maxBytes() int64 {
	if s.MaxBytes <= 0 {
		return DefaultMaxSourceBytes
	}
	return s.MaxBytes
}

// readDataURI decodes "data:[<mediatype>][;base64],<data>".
func (s *Sources) readDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if int64(len(payload)) > s.maxBytes()*4/3+4 {
		return nil, fmt.Errorf("data URI exceeds %d bytes", s.maxBytes())
	}

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return []byte(data), nil
}

func (s *Sources) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}

	return readLimited(resp.Body, s.maxBytes())
}

func (s *Sources) readFile(path string) ([]byte, error) {
	resolved, err := s.resolvePath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return readLimited(f, s.maxBytes())
}

// resolvePath keeps local sources inside Root when one is configured.
func (s *Sources) resolvePath(path string) (string, error) {
	if s.Root == "" {
		return path, nil
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", fmt.Errorf("resolve assets root: %w", err)
	}

	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("image path %q is outside the assets directory", path)
	}
	return target, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}
