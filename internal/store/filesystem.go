package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"chordbook/internal/chordbook"
)

const recordExt = ".rec"

// FileSystemStore keeps one file per record:
//
//	<root>/
//	  playbook%3Alocal_1700000000000.rec
//	  song%3A65f0c2....rec
//
// File names are the query-escaped key. With a Sealer, file contents are
// encrypted.
type FileSystemStore struct {
	root   string
	sealer Sealer
	mu     sync.RWMutex
}

// NewFileSystemStore creates the root directory if needed. sealer may be nil.
func NewFileSystemStore(root string, sealer Sealer) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileSystemStore{root: root, sealer: sealer}, nil
}

func (s *FileSystemStore) path(key string) string {
	return filepath.Join(s.root, url.QueryEscape(key)+recordExt)
}

func (s *FileSystemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(key))
}

func (s *FileSystemStore) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	if s.sealer == nil {
		return data, nil
	}
	plain, err := s.sealer.Open(data)
	if err != nil {
		return unreadable(), nil
	}
	return plain, nil
}

func (s *FileSystemStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.path(key), value)
}

func (s *FileSystemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlink(s.path(key))
}

func (s *FileSystemStore) List(_ context.Context, prefix string) ([]chordbook.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}

	var out []chordbook.Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, recordExt))
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		value, err := s.read(filepath.Join(s.root, name))
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue // removed since ReadDir
		}
		out = append(out, chordbook.Record{Key: key, Value: value})
	}
	sortRecords(out)
	return out, nil
}

// Replace writes the new file before removing the old one. A crash in
// between leaves both.
func (s *FileSystemStore) Replace(_ context.Context, oldKey, newKey string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(s.path(newKey), value); err != nil {
		return err
	}
	if oldKey == newKey {
		return nil
	}
	return s.unlink(s.path(oldKey))
}

func (s *FileSystemStore) Close() error { return nil }

// write uses a temp file in the same directory and an atomic rename.
func (s *FileSystemStore) write(destPath string, value []byte) error {
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("failed to seal record: %w", err)
		}
		value = sealed
	}

	tmpFile, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(value); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func (s *FileSystemStore) unlink(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove record: %w", err)
	}
	return nil
}
