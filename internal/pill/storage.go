package pill

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for catalog image storage
type Storage interface {
	// Save stores an image and returns the filename it was stored under
	Save(filename string, data []byte) (string, error)

	// Get retrieves an image by filename
	Get(filename string) ([]byte, error)

	// Delete removes an image
	Delete(filename string) error
}

// LocalStorage implements the Storage interface on the local filesystem,
// one flat directory of image files.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance, creating the
// directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save stores an image file
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves an image file
func (l *LocalStorage) Get(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, filename))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes an image file
func (l *LocalStorage) Delete(filename string) error {
	if err := os.Remove(filepath.Join(l.basePath, filename)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
