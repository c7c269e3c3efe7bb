// Package storage is a disk-backed object store for uploaded files. Keys are
// prefixed with the owning user's id to approximate tenant isolation, the way
// the hosted bucket organized objects under a per-user folder.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Store writes objects under a root directory.
type Store struct {
	root string
}

// New creates the root directory if needed and returns the store.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

// Save streams r into a new object and returns its key. The original filename
// only contributes its extension; the object name is a fresh UUID so uploads
// never collide.
func (s *Store) Save(userID uint, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	key := filepath.ToSlash(filepath.Join(strconv.FormatUint(uint64(userID), 10), uuid.NewString()+ext))

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create user prefix: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close object: %w", err)
	}
	return key, nil
}

// Open returns a reader for the object at key.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the object at key. Deleting a missing object is not an error.
func (s *Store) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// PublicURL returns the resolvable download path for a key.
func (s *Store) PublicURL(key string) string {
	return "/files/" + key
}

// OwnedBy reports whether the key lives under userID's prefix.
func OwnedBy(key string, userID uint) bool {
	prefix := strconv.FormatUint(uint64(userID), 10) + "/"
	return strings.HasPrefix(key, prefix)
}

// resolve maps a key to a path inside the root, rejecting traversal attempts.
func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
