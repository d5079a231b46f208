package storage

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StoredFile is what the conversation engine appends to a message after an
// attachment has been persisted.
type StoredFile struct {
	PublicURL string
	MimeType  string
}

// LocalStorageClient persists attachment content under a local uploads
// directory and serves it back by public URL.
type LocalStorageClient struct {
	uploadDir string
	baseURL   string
}

func NewLocalStorageClient(uploadDir, baseURL string) (*LocalStorageClient, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload dir %s: %w", uploadDir, err)
	}
	return &LocalStorageClient{
		uploadDir: uploadDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}, nil
}

// Store writes raw content to disk under a generated name and returns its
// public URL and sniffed mime type.
func (c *LocalStorageClient) Store(content []byte) (StoredFile, error) {
	if len(content) == 0 {
		return StoredFile{}, fmt.Errorf("storage: empty attachment content")
	}

	mimeType := http.DetectContentType(content)
	name := uuid.New().String() + extensionFor(mimeType)

	path := filepath.Join(c.uploadDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return StoredFile{}, fmt.Errorf("storage: write %s: %w", path, err)
	}

	return StoredFile{
		PublicURL: c.baseURL + "/uploads/" + name,
		MimeType:  mimeType,
	}, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// Remove deletes a previously stored file by its public URL. Used to reclaim
// attachments whose message was rejected after storage.
func (c *LocalStorageClient) Remove(publicURL string) error {
	name := path.Base(publicURL)
	if name == "." || name == "/" || strings.Contains(name, "..") {
		return fmt.Errorf("storage: invalid attachment URL %q", publicURL)
	}
	return os.Remove(filepath.Join(c.uploadDir, name))
}

// Dir exposes the upload directory so the HTTP server can mount it as a
// static route.
func (c *LocalStorageClient) Dir() string {
	return c.uploadDir
}
