package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trueka/pkg/logger"
)

// Store is the exclusive owner of the document graph. All writes go through
// Update, which serializes the in-memory mutation and the whole-file flush as
// one unit; reads get deep snapshots and never block writers beyond the copy.
type Store struct {
	path   string
	strict bool

	mu  sync.Mutex
	doc *Document
}

// Open loads the backing file. A missing file yields an empty document that
// is persisted before any read is served. A file that exists but fails to
// parse falls back to an empty document with a loud log; the corrupt file is
// left on disk until the next successful write. With strict set, a corrupt
// file is a load error instead.
func Open(path string, strict bool) (*Store, error) {
	s := &Store{path: path, strict: strict}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.doc = NewDocument()
		if err := s.persist(); err != nil {
			return nil, fmt.Errorf("docstore: initial persist: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("docstore: read %s: %w", path, err)
	default:
		doc := NewDocument()
		if err := json.Unmarshal(raw, doc); err != nil {
			if strict {
				return nil, fmt.Errorf("docstore: parse %s: %w", path, err)
			}
			logger.Error("docstore: backing file %s is corrupt, falling back to an empty document (data loss possible): %v", path, err)
			doc = NewDocument()
		}
		doc.normalize()
		s.doc = doc
	}

	return s, nil
}

// Snapshot returns a deep, independent copy of the current graph, safe for
// concurrent read-only use.
func (s *Store) Snapshot() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Update runs fn with exclusive access to the live document and then flushes
// the whole graph to disk. Concurrent calls queue behind one another; two
// mutations are never interleaved. When fn returns an error nothing is
// persisted — callers validate before mutating, so a failed fn has not
// touched the graph. A flush failure is returned to the caller while the
// in-memory document keeps the new state; the next successful Update writes
// it out.
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.doc); err != nil {
		return err
	}
	return s.persist()
}

// persist writes the full document to the backing file via a temp file and
// rename, so the file on disk is always a complete serialization. Caller
// holds s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("docstore: marshal document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("docstore: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("docstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("docstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("docstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("docstore: rename temp file: %w", err)
	}
	return nil
}

// Mutate runs fn inside an Update and carries a typed result out.
func Mutate[T any](s *Store, fn func(doc *Document) (T, error)) (T, error) {
	var result T
	err := s.Update(func(doc *Document) error {
		var innerErr error
		result, innerErr = fn(doc)
		return innerErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
