package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	m := NewManager(t.TempDir())
	at := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	data := []byte("archive bytes")
	path, err := m.Write(data, at)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(m.Dir(), "billkeeper-20260830T150405Z.bkp"), path)

	got, err := m.Read(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// No temp files survive a successful write.
	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), tmpSuffix), e.Name())
	}
}

func TestWrite_SameSecondCollision(t *testing.T) {
	m := NewManager(t.TempDir())
	at := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	p1, err := m.Write([]byte("first"), at)
	require.NoError(t, err)
	p2, err := m.Write([]byte("second"), at)
	require.NoError(t, err)
	p3, err := m.Write([]byte("third"), at)
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
	assert.Equal(t, "billkeeper-20260830T150405Z_01.bkp", filepath.Base(p2))
	assert.Equal(t, "billkeeper-20260830T150405Z_02.bkp", filepath.Base(p3))

	// Same-second backups still list newest-first.
	got, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{p3, p2, p1}, got)
}

func TestWrite_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "backups")
	m := NewManager(dir)

	_, err := m.Write([]byte("data"), time.Now())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestList_NewestFirst(t *testing.T) {
	m := NewManager(t.TempDir())

	stamps := []time.Time{
		time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
	}
	var paths []string
	for _, at := range stamps {
		p, err := m.Write([]byte("x"), at)
		require.NoError(t, err)
		paths = append(paths, p)
	}

	// Unrelated files and leftovers are not backups.
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "billkeeper-x.bkp.123.tmp"), []byte("x"), 0o600))

	got, err := m.List()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, paths[1], got[0])
	assert.Equal(t, paths[2], got[1])
	assert.Equal(t, paths[0], got[2])
}

func TestList_MissingDirectory(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))

	got, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDelete(t *testing.T) {
	m := NewManager(t.TempDir())

	path, err := m.Write([]byte("x"), time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, m.Delete(path))
	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	// Deleting again is a no-op.
	require.NoError(t, m.Delete(path))
}

func TestDelete_OutsideDirectory(t *testing.T) {
	m := NewManager(t.TempDir())

	victim := filepath.Join(t.TempDir(), "precious.bkp")
	require.NoError(t, os.WriteFile(victim, []byte("x"), 0o600))

	require.Error(t, m.Delete(victim))
	_, err := os.Stat(victim)
	require.NoError(t, err)
}

func TestReadHeader_Limit(t *testing.T) {
	m := NewManager(t.TempDir())

	path, err := m.Write(make([]byte, headerReadLimit*3), time.Now())
	require.NoError(t, err)

	data, err := m.ReadHeader(path)
	require.NoError(t, err)
	assert.Len(t, data, headerReadLimit)
}
