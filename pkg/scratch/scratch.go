// Package scratch manages the temporary-output area that finished mockups are
// written to. Files appear under their final name only once complete; an
// external scheduler deletes them after the retention period (see Sweep).
package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Prefix starts every generated file name.
const Prefix = "mockup-"

const partSuffix = ".part"

// Area is a directory of generated files.
type Area struct {
	Dir string
}

// NewArea returns the area rooted at dir, creating the directory if needed.
func NewArea(dir string) (*Area, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Area{Dir: dir}, nil
}

// Create opens a new part file that will become mockup-<ULID>.<ext> on Commit.
// Callers must Discard the file on every path that does not commit it.
func (a *Area) Create(ext string) (*File, error) {
	ext = strings.TrimPrefix(ext, ".")
	name := Prefix + ulid.Make().String() + "." + ext

	part := filepath.Join(a.Dir, "."+name+partSuffix)
	f, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", part, err)
	}

	return &File{
		f:     f,
		name:  name,
		part:  part,
		final: filepath.Join(a.Dir, name),
	}, nil
}

// Resolve returns the path of a committed file. name must be a bare file name
// of this area; part files are never resolved.
func (a *Area) Resolve(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(a.Dir, name), nil
}

// File is a file being written to the area.
type File struct {
	f         *os.File
	name      string
	part      string
	final     string
	committed bool
}

// Name returns the final file name.
func (f *File) Name() string { return f.name }

func (f *File) Write(p []byte) (int, error) {
	if f.f == nil {
		return 0, os.ErrClosed
	}
	return f.f.Write(p)
}

// Commit closes the file and moves it to its final name, returning the path.
func (f *File) Commit() (string, error) {
	if f.committed {
		return f.final, nil
	}
	if f.f == nil {
		return "", os.ErrClosed
	}

	err := f.f.Close()
	f.f = nil
	if err == nil {
		err = os.Rename(f.part, f.final)
	}
	if err != nil {
		os.Remove(f.part)
		return "", fmt.Errorf("commit %s: %w", f.name, err)
	}

	f.committed = true
	return f.final, nil
}

// Discard closes and removes the part file. It is a no-op after Commit and
// safe to call more than once.
func (f *File) Discard() error {
	if f.committed {
		return nil
	}
	if f.f != nil {
		f.f.Close()
		f.f = nil
	}
	if err := os.Remove(f.part); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Sweep deletes regular files in dir last modified more than maxAge before
// now, and returns their names. Part files are included: a part file that old
// belongs to a crashed run.
func Sweep(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	log := logrus.WithField("dir", dir)
	cutoff := now.Add(-maxAge)

	var removed []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("file", e.Name()).Warn("Failed to remove expired file")
			continue
		}
		removed = append(removed, e.Name())
	}

	log.WithField("removed", len(removed)).Info("Swept temp dir")
	return removed, nil
}
