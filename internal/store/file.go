package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// namespacePattern restricts namespaces to safe file name characters.
var namespacePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// FileStore persists each namespace as a JSON file under a directory.
//
// Saves go through a temp file, fsync, and rename, so a crash mid-write
// leaves the previous file intact. Writes are serialized per store.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads and decodes a namespace file.
func (s *FileStore) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	if err := validNamespace(namespace); err != nil {
		return false, err
	}

	data, err := os.ReadFile(s.path(namespace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: read %s: %v", ErrUnavailable, namespace, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", namespace, err)
	}
	return true, nil
}

// Save writes the namespace via temp-file-then-rename.
func (s *FileStore) Save(ctx context.Context, namespace string, v any) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, namespace+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrUnavailable, namespace, err)
	}
	tmpName := tmp.Name()

	// Any failure past this point must not leave the temp file behind.
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("%w: write %s: %v", ErrUnavailable, namespace, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("%w: sync %s: %v", ErrUnavailable, namespace, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, namespace, err)
	}

	if err := os.Rename(tmpName, s.path(namespace)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", ErrUnavailable, namespace, err)
	}

	return s.syncDir()
}

// Ping verifies the data directory is still writable.
func (s *FileStore) Ping(ctx context.Context) error {
	f, err := os.CreateTemp(s.dir, ".ping.*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(namespace string) string {
	return filepath.Join(s.dir, namespace+".json")
}

// syncDir fsyncs the directory so the rename itself is durable.
func (s *FileStore) syncDir() error {
	d, err := os.Open(s.dir)
	if err != nil {
		return fmt.Errorf("%w: open dir: %v", ErrUnavailable, err)
	}
	defer d.Close()
	// Some filesystems reject fsync on directories; the rename is
	// still atomic there, so this is best-effort.
	_ = d.Sync()
	return nil
}

func validNamespace(namespace string) error {
	if !namespacePattern.MatchString(namespace) {
		return fmt.Errorf("invalid namespace %q", namespace)
	}
	return nil
}
