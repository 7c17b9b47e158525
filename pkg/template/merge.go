// merge.go — Resolve the template for a product/variation pair.
package template

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Resolve returns the effective template for productID and variationID.
//
// The variation record is used when it exists, the product record otherwise.
// When both exist the variation's placement fields override the product's one
// by one, and an empty variation BasePath inherits the product's. The base
// image must be an existing regular file; otherwise ErrNotFound is returned.
func Resolve(ctx context.Context, store Store, productID, variationID string) (*Record, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: empty product id", ErrNotFound)
	}

	product, err := lookup(ctx, store, Key{ProductID: productID})
	if err != nil {
		return nil, err
	}

	var variation *Record
	if variationID != "" {
		if variation, err = lookup(ctx, store, Key{ProductID: productID, VariationID: variationID}); err != nil {
			return nil, err
		}
	}

	rec := Merge(product, variation)
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, Key{productID, variationID})
	}

	if err := checkBase(rec.BasePath); err != nil {
		return nil, err
	}
	return rec, nil
}

// lookup returns nil without error when the key is absent.
func lookup(ctx context.Context, store Store, key Key) (*Record, error) {
	rec, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", key, err)
	}
	return rec, nil
}

// Merge overlays variation onto product. Either may be nil; the result is a
// fresh copy, or nil when both are.
func Merge(product, variation *Record) *Record {
	switch {
	case product == nil && variation == nil:
		return nil
	case variation == nil:
		out := *product
		return &out
	case product == nil:
		out := *variation
		return &out
	}

	out := *variation
	out.Placement = product.Placement.Merge(variation.Placement)
	if out.BasePath == "" {
		out.BasePath = product.BasePath
	}
	if out.Title == "" {
		out.Title = product.Title
	}
	return &out
}

func checkBase(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no base image", ErrNotFound)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: base image: %v", ErrNotFound, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: base image %s is not a regular file", ErrNotFound, path)
	}
	return nil
}
