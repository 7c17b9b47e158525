// Package memory is an in-process template store, used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoMockup/pkg/template"
)

var _ template.Store = (*Store)(nil)

// Store is a template.Store held in a map.
type Store struct {
	mu      sync.RWMutex
	records map[template.Key]template.Record
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{records: make(map[template.Key]template.Record)}
}

func (s *Store) Get(ctx context.Context, key template.Key) (*template.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", template.ErrNotFound, key)
	}
	return &rec, nil
}

func (s *Store) Save(ctx context.Context, rec *template.Record) error {
	if rec.ProductID == "" {
		return fmt.Errorf("save template: empty product id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Key()] = *rec
	logrus.WithField("template", rec.Key().String()).Debug("Template saved")
	return nil
}

func (s *Store) Delete(ctx context.Context, key template.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		return fmt.Errorf("%w: %s", template.ErrNotFound, key)
	}
	delete(s.records, key)
	return nil
}

func (s *Store) List(ctx context.Context) ([]*template.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*template.Record, 0, len(s.records))
	for _, rec := range s.records {
		rec := rec
		out = append(out, &rec)
	}
	template.SortRecords(out)
	return out, nil
}
