package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestScanMatchesExtensionsCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "b.JPEG"))
	touch(t, filepath.Join(dir, "nested", "c.heic"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "track.gpx"))

	files, err := NewFileScanner(dir, PhotoExtensions).Scan()

	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestScanMissingDirectory(t *testing.T) {
	files, err := NewFileScanner(filepath.Join(t.TempDir(), "absent"), PhotoExtensions).Scan()

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanGPXExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ride.gpx"))
	touch(t, filepath.Join(dir, "photo.jpg"))

	files, err := NewFileScanner(dir, GPXExtensions).Scan()

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "ride.gpx", filepath.Base(files[0]))
}
