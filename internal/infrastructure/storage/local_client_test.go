package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal valid PNG header so content sniffing kicks in.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func TestStoreWritesFileAndBuildsURL(t *testing.T) {
	dir := t.TempDir()
	client, err := NewLocalStorageClient(dir, "http://localhost:8080/")
	require.NoError(t, err)

	stored, err := client.Store(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.MimeType)
	assert.True(t, strings.HasPrefix(stored.PublicURL, "http://localhost:8080/uploads/"),
		"trailing slash on the base URL is normalized")
	assert.True(t, strings.HasSuffix(stored.PublicURL, ".png"))

	name := filepath.Base(stored.PublicURL)
	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, content)
}

func TestStoreRejectsEmptyContent(t *testing.T) {
	client, err := NewLocalStorageClient(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	_, err = client.Store(nil)
	assert.Error(t, err)
}

func TestStoreUnknownContentGetsExtension(t *testing.T) {
	client, err := NewLocalStorageClient(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	stored, err := client.Store([]byte{0x00, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", stored.MimeType)
	assert.Contains(t, filepath.Base(stored.PublicURL), ".",
		"unrecognized content still gets a file extension")
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	dir := t.TempDir()
	client, err := NewLocalStorageClient(dir, "http://localhost:8080")
	require.NoError(t, err)

	stored, err := client.Store(pngHeader)
	require.NoError(t, err)

	require.NoError(t, client.Remove(stored.PublicURL))
	_, err = os.Stat(filepath.Join(dir, filepath.Base(stored.PublicURL)))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, client.Remove("http://localhost:8080/uploads/../escape"))
}

func TestNewClientCreatesUploadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	client, err := NewLocalStorageClient(dir, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, dir, client.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
