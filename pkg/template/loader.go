// loader.go — Load template manifests and import .zip template bundles.
package template

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ManifestName is the manifest file inside a template bundle.
const ManifestName = "templates.json"

// maxEntryBytes bounds a single extracted bundle entry.
const maxEntryBytes = 64 << 20

// LoadManifest reads a JSON array of records from path. Relative base paths are
// resolved against the manifest's directory.
func LoadManifest(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	dir := dirOf(path)
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("parse manifest %s: entry %d is null", path, i)
		}
		resolveBasePath(rec, dir)
	}
	return records, nil
}

// ImportBundle extracts the .zip bundle at zipPath into destDir and loads the
// records of its templates.json. Base images referenced by the manifest are
// expected inside the bundle.
func ImportBundle(zipPath, destDir string) ([]*Record, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", zipPath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", destDir, err)
	}

	if err := extractZip(&r.Reader, destDir); err != nil {
		return nil, fmt.Errorf("extract %s: %w", zipPath, err)
	}

	return LoadManifest(filepath.Join(destDir, ManifestName))
}

func dirOf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Dir(path)
}

func resolveBasePath(rec *Record, dir string) {
	if rec.BasePath == "" || filepath.IsAbs(rec.BasePath) {
		return
	}
	rec.BasePath = filepath.Join(dir, filepath.FromSlash(rec.BasePath))
}

// extractZip extracts all files from r into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	root := filepath.Clean(destDir) + string(os.PathSeparator)

	for _, f := range r.File {
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target)+string(os.PathSeparator), root) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	n, err := io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxEntryBytes {
		err = fmt.Errorf("entry exceeds %d bytes", maxEntryBytes)
	}
	return err
}
