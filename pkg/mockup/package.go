// package.go — Design download package: the design JSON, its preview and a README.
package mockup

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WritePackage writes a ZIP archive to w holding design.json, the mockup at
// mockupPath as preview.<ext> when the path is non-empty, and README.txt.
func WritePackage(w io.Writer, designData []byte, mockupPath string) error {
	zw := zip.NewWriter(w)

	if err := addBytes(zw, "design.json", prettyJSON(designData)); err != nil {
		return err
	}

	if mockupPath != "" {
		ext := strings.ToLower(filepath.Ext(mockupPath))
		if err := addFile(zw, "preview"+ext, mockupPath); err != nil {
			return err
		}
	}

	readme := fmt.Sprintf("Custom Design Package\nGenerated: %s\n", time.Now().UTC().Format(time.RFC3339))
	if mockupPath != "" {
		readme += "Preview: " + filepath.Base(mockupPath) + "\n"
	}
	if err := addBytes(zw, "README.txt", []byte(readme)); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish package: %w", err)
	}
	return nil
}

// prettyJSON indents valid JSON and returns anything else unchanged.
func prettyJSON(data []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return data
	}
	return buf.Bytes()
}

func addBytes(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	return nil
}

func addFile(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open preview: %w", err)
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	return nil
}
