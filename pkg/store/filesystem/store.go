// Package filesystem stores template records as JSON files:
// <base>/<product>.json for product records and
// <base>/<product>/<variation>.json for variation records.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/template"
)

var _ template.Store = (*Store)(nil)

// Store is a template.Store backed by JSON files.
type Store struct {
	basePath string
}

// NewStore creates a filesystem store rooted at basePath, creating it if needed.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create template directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// checkID rejects ids that are not plain file names.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid id %q: must be a plain name", id)
	}
	return nil
}

func (s *Store) pathFor(key template.Key) (string, error) {
	if err := checkID(key.ProductID); err != nil {
		return "", err
	}
	if key.VariationID == "" {
		return filepath.Join(s.basePath, key.ProductID+".json"), nil
	}
	if err := checkID(key.VariationID); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, key.ProductID, key.VariationID+".json"), nil
}

func (s *Store) Get(ctx context.Context, key template.Key) (*template.Record, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", template.ErrNotFound, key)
		}
		return nil, err
	}

	rec, err := template.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// The key is authoritative.
	rec.ProductID, rec.VariationID = key.ProductID, key.VariationID
	return rec, nil
}

func (s *Store) Save(ctx context.Context, rec *template.Record) error {
	path, err := s.pathFor(rec.Key())
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"template": rec.Key().String(), "file_path": path})

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// Concurrent saves of one key each get their own temp file; the last
	// rename wins.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tpl-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.WithError(err).Error("Failed to write template")
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	log.Debug("Template saved")
	return nil
}

func (s *Store) Delete(ctx context.Context, key template.Key) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", template.ErrNotFound, key)
		}
		return err
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*template.Record, error) {
	var keys []template.Key

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			variations, err := os.ReadDir(filepath.Join(s.basePath, e.Name()))
			if err != nil {
				return nil, err
			}
			for _, v := range variations {
				if id, ok := strings.CutSuffix(v.Name(), ".json"); ok && !v.IsDir() {
					keys = append(keys, template.Key{ProductID: e.Name(), VariationID: id})
				}
			}
			continue
		}
		if id, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			keys = append(keys, template.Key{ProductID: id})
		}
	}

	out := make([]*template.Record, 0, len(keys))
	for _, k := range keys {
		rec, err := s.Get(ctx, k)
		if err != nil {
			logrus.WithError(err).WithField("template", k.String()).Warn("Skipping unreadable template")
			continue
		}
		out = append(out, rec)
	}
	template.SortRecords(out)
	return out, nil
}
