package testutils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tebohomanyeli/Timeline-App-Fullstack/consts"
)

// FileBasedBlobStore implements a disk-based attachment store mock for
// testing. It acts like the S3 adapter but stores objects as files in a
// temporary directory; content types are tracked in memory.
type FileBasedBlobStore struct {
	mu           sync.RWMutex
	baseDir      string
	contentTypes map[string]string
	errors       map[string]error // Map of key -> error to simulate failures
	putErr       error            // Fails every Put regardless of key
}

// NewFileBasedBlobStore creates a new file-based blob store mock rooted at baseDir.
func NewFileBasedBlobStore(baseDir string) (*FileBasedBlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileBasedBlobStore{
		baseDir:      baseDir,
		contentTypes: make(map[string]string),
		errors:       make(map[string]error),
	}, nil
}

// Put stores an object as a file on disk.
func (m *FileBasedBlobStore) Put(_ context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if err := m.injectedError(key); err != nil {
		return err
	}
	m.mu.RLock()
	putErr := m.putErr
	m.mu.RUnlock()
	if putErr != nil {
		return putErr
	}

	filePath := m.keyToFilePath(key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d, wrote %d", size, written)
	}

	m.mu.Lock()
	m.contentTypes[key] = contentType
	m.mu.Unlock()

	return nil
}

// Get retrieves an object, returning the stored content type and a stream.
// Missing keys yield consts.ErrAttachmentNotFound just like the S3 adapter.
func (m *FileBasedBlobStore) Get(_ context.Context, key string) (string, io.ReadCloser, error) {
	if err := m.injectedError(key); err != nil {
		return "", nil, err
	}

	filePath := m.keyToFilePath(key)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", nil, consts.ErrAttachmentNotFound
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open file: %w", err)
	}

	m.mu.RLock()
	contentType := m.contentTypes[key]
	m.mu.RUnlock()

	return contentType, file, nil
}

// Exists checks if an object exists.
func (m *FileBasedBlobStore) Exists(_ context.Context, key string) (bool, error) {
	if err := m.injectedError(key); err != nil {
		return false, err
	}

	if _, err := os.Stat(m.keyToFilePath(key)); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// Delete removes an object. Deleting a missing object succeeds.
func (m *FileBasedBlobStore) Delete(_ context.Context, key string) error {
	if err := m.injectedError(key); err != nil {
		return err
	}

	err := os.Remove(m.keyToFilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	m.mu.Lock()
	delete(m.contentTypes, key)
	m.mu.Unlock()

	return nil
}

// DeleteAll clears the whole store. An already-empty store succeeds.
func (m *FileBasedBlobStore) DeleteAll(_ context.Context) error {
	if err := m.injectedError("*"); err != nil {
		return err
	}

	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list store: %w", err)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(m.baseDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}

	m.mu.Lock()
	m.contentTypes = make(map[string]string)
	m.mu.Unlock()

	return nil
}

// Keys returns all stored object keys.
func (m *FileBasedBlobStore) Keys() []string {
	keys := []string{}
	_ = filepath.Walk(m.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.baseDir, path)
		if err != nil {
			return nil
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	return keys
}

// Test helper methods

// SetError configures the mock to return an error for operations on a
// specific key. Use "*" to fail DeleteAll.
func (m *FileBasedBlobStore) SetError(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key] = err
}

// SetPutError configures the mock to fail every Put with err. Object keys are
// generated at write time, so a per-key error cannot target them.
func (m *FileBasedBlobStore) SetPutError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// ClearError removes any configured error for a specific key.
func (m *FileBasedBlobStore) ClearError(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errors, key)
}

func (m *FileBasedBlobStore) injectedError(key string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errors[key]
}

func (m *FileBasedBlobStore) keyToFilePath(key string) string {
	safe := strings.ReplaceAll(key, "..", "_")
	return filepath.Join(m.baseDir, safe)
}
