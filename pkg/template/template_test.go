package template_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoMockup/pkg/placement"
	"github.com/xob0t/GoMockup/pkg/store/memory"
	"github.com/xob0t/GoMockup/pkg/template"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	productBase := touch(t, filepath.Join(dir, "tee.png"))
	redBase := touch(t, filepath.Join(dir, "tee-red.png"))

	s := memory.NewStore()
	require.NoError(t, s.Save(ctx, &template.Record{
		ProductID: "tee",
		Title:     "Tee",
		BasePath:  productBase,
		Placement: placement.Spec{Rotation: placement.Float(10), Scale: placement.Float(0.5)},
	}))
	require.NoError(t, s.Save(ctx, &template.Record{
		ProductID:   "tee",
		VariationID: "red",
		BasePath:    redBase,
		Placement:   placement.Spec{Scale: placement.Float(0.8)},
	}))
	require.NoError(t, s.Save(ctx, &template.Record{ProductID: "mug", VariationID: "white", BasePath: productBase}))
	require.NoError(t, s.Save(ctx, &template.Record{ProductID: "cap", BasePath: filepath.Join(dir, "missing.png")}))

	t.Run("product only", func(t *testing.T) {
		rec, err := template.Resolve(ctx, s, "tee", "")
		require.NoError(t, err)
		assert.Equal(t, productBase, rec.BasePath)
		assert.Equal(t, 0.5, *rec.Placement.Scale)
	})

	t.Run("unknown variation falls back to product", func(t *testing.T) {
		rec, err := template.Resolve(ctx, s, "tee", "green")
		require.NoError(t, err)
		assert.Equal(t, productBase, rec.BasePath)
	})

	t.Run("variation overrides field by field", func(t *testing.T) {
		rec, err := template.Resolve(ctx, s, "tee", "red")
		require.NoError(t, err)
		assert.Equal(t, redBase, rec.BasePath)
		assert.Equal(t, "Tee", rec.Title)
		assert.Equal(t, 10.0, *rec.Placement.Rotation)
		assert.Equal(t, 0.8, *rec.Placement.Scale)
	})

	t.Run("variation without product", func(t *testing.T) {
		rec, err := template.Resolve(ctx, s, "mug", "white")
		require.NoError(t, err)
		assert.True(t, rec.Placement.IsZero())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := template.Resolve(ctx, s, "mug", "")
		assert.ErrorIs(t, err, template.ErrNotFound)

		_, err = template.Resolve(ctx, s, "", "")
		assert.ErrorIs(t, err, template.ErrNotFound)
	})

	t.Run("missing base image", func(t *testing.T) {
		_, err := template.Resolve(ctx, s, "cap", "")
		assert.ErrorIs(t, err, template.ErrNotFound)
	})
}

func TestMerge_InheritsBasePath(t *testing.T) {
	product := &template.Record{ProductID: "p", BasePath: "/a.png"}
	variation := &template.Record{ProductID: "p", VariationID: "v"}

	got := template.Merge(product, variation)
	assert.Equal(t, "/a.png", got.BasePath)
	assert.Equal(t, "v", got.VariationID)
	assert.Nil(t, template.Merge(nil, nil))

	got.BasePath = "/changed.png"
	assert.Equal(t, "/a.png", product.BasePath, "merge must copy")
}

func TestValidate(t *testing.T) {
	base := touch(t, filepath.Join(t.TempDir(), "b.png"))

	assert.Empty(t, template.Validate(&template.Record{ProductID: "p", BasePath: base}))

	warnings := template.Validate(&template.Record{
		Placement: placement.Spec{Scale: placement.Float(0)},
	})
	assert.Len(t, warnings, 3)

	warnings = template.Validate(&template.Record{ProductID: "p", BasePath: "/nope/b.png"})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "not readable")
}

func TestLoadManifest_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`[
		{"productId": "tee", "basePath": "img/tee.png", "placement": {"scale": 0.5}},
		{"productId": "tee", "variationId": "red", "basePath": "/abs/red.png"}
	]`), 0o644))

	records, err := template.LoadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, filepath.Join(dir, "img", "tee.png"), records[0].BasePath)
	assert.Equal(t, "/abs/red.png", records[1].BasePath)
	assert.Equal(t, 0.5, *records[0].Placement.Scale)

	require.NoError(t, os.WriteFile(manifest, []byte(`{"productId": "x"}`), 0o644))
	_, err = template.LoadManifest(manifest)
	assert.Error(t, err)
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestImportBundle(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "bundle.zip")
	writeZip(t, bundle, map[string]string{
		"templates.json":  `[{"productId": "tee", "basePath": "images/tee.png"}]`,
		"images/tee.png": "png bytes",
	})

	dest := filepath.Join(dir, "out")
	records, err := template.ImportBundle(bundle, dest)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, filepath.Join(dest, "images", "tee.png"), records[0].BasePath)
	assert.FileExists(t, records[0].BasePath)
}

func TestImportBundle_RejectsZipSlip(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "evil.zip")
	writeZip(t, bundle, map[string]string{"../escaped.txt": "boom"})

	_, err := template.ImportBundle(bundle, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "escaped.txt"))
}

func TestParseRecordFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.json")
	require.NoError(t, os.WriteFile(path, []byte(template.ExampleJSON()), 0o644))

	rec, err := template.ParseRecordFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tshirt", rec.ProductID)
	assert.Equal(t, filepath.Join(dir, "base.png"), rec.BasePath)
	assert.Equal(t, 0.5, *rec.Placement.Scale)
}
