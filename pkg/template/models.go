// Package template holds placement templates: the base product photo and the
// placement transform a design receives before it is composited onto it.
package template

import (
	"context"
	"errors"
	"sort"

	"github.com/xob0t/GoMockup/pkg/placement"
)

// ErrNotFound is returned when no template exists for a product/variation pair,
// or when its base image is missing.
var ErrNotFound = errors.New("template not found")

// ── Record types ──

// Record is one placement template. A record with an empty VariationID is the
// product-level template; variation records override it.
type Record struct {
	ProductID   string         `json:"productId"`
	VariationID string         `json:"variationId,omitempty"`
	Title       string         `json:"title,omitempty"`
	BasePath    string         `json:"basePath"`
	Placement   placement.Spec `json:"placement"`
}

// Key returns the store key of the record.
func (r Record) Key() Key {
	return Key{ProductID: r.ProductID, VariationID: r.VariationID}
}

// Key identifies a record.
type Key struct {
	ProductID   string
	VariationID string
}

// String renders the key as "product" or "product/variation".
func (k Key) String() string {
	if k.VariationID == "" {
		return k.ProductID
	}
	return k.ProductID + "/" + k.VariationID
}

// ── Store ──

// Store persists template records. Implementations are safe for concurrent use.
// Get and Delete return ErrNotFound for unknown keys.
type Store interface {
	Get(ctx context.Context, key Key) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context) ([]*Record, error)
}

// SortRecords orders records by product, then variation; product-level
// records come before their variations.
func SortRecords(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.VariationID < b.VariationID
	})
}
