package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoMockup/pkg/placement"
	"github.com/xob0t/GoMockup/pkg/store/filesystem"
	"github.com/xob0t/GoMockup/pkg/template"
)

func backends(t *testing.T) map[string]template.Store {
	t.Helper()
	dir := t.TempDir()

	out := make(map[string]template.Store)
	for kind, path := range map[string]string{
		"memory":     "",
		"filesystem": filepath.Join(dir, "fs"),
		"sqlite":     filepath.Join(dir, "templates.db"),
	} {
		s, err := OpenKind(kind, path)
		require.NoError(t, err, kind)
		out[kind] = s
	}
	return out
}

func TestStores_CRUD(t *testing.T) {
	ctx := context.Background()

	for kind, s := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			product := &template.Record{
				ProductID: "mug",
				Title:     "Mug",
				BasePath:  "/srv/mug.png",
				Placement: placement.Spec{Scale: placement.Float(0.5)},
			}
			variation := &template.Record{
				ProductID:   "mug",
				VariationID: "blue",
				Placement:   placement.Spec{Rotation: placement.Float(-12)},
			}
			other := &template.Record{ProductID: "cap", BasePath: "/srv/cap.png"}

			for _, r := range []*template.Record{variation, product, other} {
				require.NoError(t, s.Save(ctx, r))
			}

			got, err := s.Get(ctx, template.Key{ProductID: "mug"})
			require.NoError(t, err)
			assert.Equal(t, product, got)

			got, err = s.Get(ctx, template.Key{ProductID: "mug", VariationID: "blue"})
			require.NoError(t, err)
			assert.Nil(t, got.Placement.Scale)
			require.NotNil(t, got.Placement.Rotation)
			assert.Equal(t, -12.0, *got.Placement.Rotation)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "cap", list[0].Key().String())
			assert.Equal(t, "mug", list[1].Key().String())
			assert.Equal(t, "mug/blue", list[2].Key().String())

			// Save replaces.
			product.Title = "Big mug"
			require.NoError(t, s.Save(ctx, product))
			got, err = s.Get(ctx, product.Key())
			require.NoError(t, err)
			assert.Equal(t, "Big mug", got.Title)

			require.NoError(t, s.Delete(ctx, variation.Key()))
			_, err = s.Get(ctx, variation.Key())
			assert.ErrorIs(t, err, template.ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, variation.Key()), template.ErrNotFound)
		})
	}
}

func TestStores_ResolveThroughBackend(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "base.png")
	require.NoError(t, os.WriteFile(base, []byte("png"), 0o644))

	for kind, s := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, &template.Record{
				ProductID: "tee",
				BasePath:  base,
				Placement: placement.Spec{Rotation: placement.Float(5), Scale: placement.Float(2)},
			}))
			require.NoError(t, s.Save(ctx, &template.Record{
				ProductID:   "tee",
				VariationID: "xl",
				Placement:   placement.Spec{Scale: placement.Float(3)},
			}))

			rec, err := template.Resolve(ctx, s, "tee", "xl")
			require.NoError(t, err)
			assert.Equal(t, base, rec.BasePath)
			assert.Equal(t, 5.0, *rec.Placement.Rotation)
			assert.Equal(t, 3.0, *rec.Placement.Scale)

			_, err = template.Resolve(ctx, s, "hoodie", "")
			assert.ErrorIs(t, err, template.ErrNotFound)
		})
	}
}

func TestFilesystemStore_RejectsPathIDs(t *testing.T) {
	s, err := OpenKind("filesystem", t.TempDir())
	require.NoError(t, err)

	err = s.Save(context.Background(), &template.Record{ProductID: "../escape"})
	assert.Error(t, err)
}

func TestFilesystemStore_ConcurrentSavesOfOneKey(t *testing.T) {
	dir := t.TempDir()
	s, err := filesystem.NewStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	errs := make([]error, 16)

	var wg sync.WaitGroup
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Save(ctx, &template.Record{ProductID: "tee", BasePath: "/srv/tee.png", Title: "Tee"})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	got, err := s.Get(ctx, template.Key{ProductID: "tee"})
	require.NoError(t, err)
	assert.Equal(t, "Tee", got.Title)

	// No temp files are left next to the record.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tee.json", entries[0].Name())
}

func TestOpenKind_Unknown(t *testing.T) {
	_, err := OpenKind("redis", "")
	assert.Error(t, err)
}
