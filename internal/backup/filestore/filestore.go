// Package filestore owns the backup directory: archive naming, listing,
// atomic writes, and deletion. It imposes no retention policy; callers
// decide what to keep.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "billkeeper-"
	fileExt    = ".bkp"
	tmpSuffix  = ".tmp"

	// Sortable UTC timestamp, so List can order backups newest-first from
	// names alone without reading file metadata.
	timeFormat = "20060102T150405Z"

	// headerReadLimit comfortably covers the fixed archive header plus its
	// variable-length fields.
	headerReadLimit = 4096
)

// Manager owns a single backup directory.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the managed directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Write persists data as a new archive file, named after at, and returns
// its path. The data is written to a temporary file in the same directory
// and renamed into place only after a successful write and sync, so a crash
// mid-write never leaves a half-written archive visible to List.
func (m *Manager) Write(data []byte, at time.Time) (string, error) {
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := m.nextPath(at)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(m.dir, filepath.Base(path)+".*"+tmpSuffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}
	return path, nil
}

// nextPath picks a timestamped name that does not collide with an existing
// backup; a second backup within the same second gets a numeric suffix.
// The suffix separator sorts above '.', so suffixed names stay newer than
// the base name under List's descending name sort.
func (m *Manager) nextPath(at time.Time) (string, error) {
	stamp := at.UTC().Format(timeFormat)
	base := filepath.Join(m.dir, filePrefix+stamp)

	path := base + fileExt
	for n := 1; ; n++ {
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		path = fmt.Sprintf("%s_%02d%s", base, n, fileExt)
	}
}

// Read returns the full contents of the backup at path.
func (m *Manager) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return data, nil
}

// ReadHeader returns at most the first headerReadLimit bytes of the file at
// path. That is enough for any archive header and avoids pulling the payload
// of a large backup into memory.
func (m *Manager) ReadHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, headerReadLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to read backup header: %w", err)
	}
	return data, nil
}

// List returns the paths of all backups in the directory, most recent
// first. Ordering is by name (the embedded timestamp), temp files are
// skipped, and a missing directory yields an empty list.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(m.dir, name)
	}
	return paths, nil
}

// Delete removes a single backup file. Deleting a file that does not exist
// is a no-op. Paths outside the managed directory are rejected.
func (m *Manager) Delete(path string) error {
	dir, err := filepath.Abs(m.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve backup directory: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if filepath.Dir(abs) != dir {
		return fmt.Errorf("refusing to delete outside backup directory: %s", path)
	}

	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}
