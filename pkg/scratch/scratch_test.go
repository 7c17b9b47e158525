package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, dir string) []string {
	t.Helper()
	es, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range es {
		names = append(names, e.Name())
	}
	return names
}

func TestFile_CommitPublishesAtomically(t *testing.T) {
	a, err := NewArea(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	f, err := a.Create("png")
	require.NoError(t, err)
	defer f.Discard()

	assert.True(t, strings.HasPrefix(f.Name(), Prefix))
	assert.True(t, strings.HasSuffix(f.Name(), ".png"))

	_, err = f.Write([]byte("data"))
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(a.Dir, f.Name()), "not visible before commit")

	path, err := f.Commit()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.Dir, f.Name()), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	require.NoError(t, f.Discard())
	assert.FileExists(t, path, "discard after commit keeps the file")
	assert.Equal(t, []string{f.Name()}, entries(t, a.Dir))
}

func TestFile_DiscardRemovesPart(t *testing.T) {
	a, err := NewArea(t.TempDir())
	require.NoError(t, err)

	f, err := a.Create(".jpg")
	require.NoError(t, err)
	_, err = f.Write([]byte("partial"))
	require.NoError(t, err)

	require.NoError(t, f.Discard())
	require.NoError(t, f.Discard())
	assert.Empty(t, entries(t, a.Dir))

	_, err = f.Commit()
	assert.Error(t, err)
}

func TestArea_NamesAreUnique(t *testing.T) {
	a, err := NewArea(t.TempDir())
	require.NoError(t, err)

	const n = 50
	names := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := a.Create("png")
			if !assert.NoError(t, err) {
				return
			}
			_, err = f.Commit()
			assert.NoError(t, err)
			names <- f.Name()
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		assert.False(t, seen[name], name)
		seen[name] = true
	}
	assert.Len(t, entries(t, a.Dir), n)
}

func TestArea_Resolve(t *testing.T) {
	a := &Area{Dir: "/tmp/out"}

	p, err := a.Resolve("mockup-1.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/out", "mockup-1.png"), p)

	for _, bad := range []string{"", "..", "../x.png", "a/b.png", ".mockup-1.png.part"} {
		_, err := a.Resolve(bad)
		assert.Error(t, err, bad)
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, "mockup-old.png")
	fresh := filepath.Join(dir, "mockup-new.png")
	require.NoError(t, os.WriteFile(old, nil, 0o644))
	require.NoError(t, os.WriteFile(fresh, nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Chtimes(old, now.Add(-48*time.Hour), now.Add(-48*time.Hour)))

	removed, err := Sweep(dir, 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"mockup-old.png"}, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.DirExists(t, filepath.Join(dir, "sub"))

	removed, err = Sweep(filepath.Join(dir, "missing"), time.Hour, now)
	require.NoError(t, err)
	assert.Empty(t, removed)
}
