package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager handles file storage under a data directory and duplicate
// detection. Files are addressed by slash-separated relative paths such as
// "sn86069873/1900-01-05/ed-1/seq-3.txt"; intermediate directories are
// created on demand.
type Manager struct {
	dataDir string
	saved   map[string]bool
	mu      sync.RWMutex
}

// NewManager creates a new storage manager rooted at dataDir
func NewManager(dataDir string) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	manager := &Manager{
		dataDir: dataDir,
		saved:   make(map[string]bool),
	}

	// Scan existing files for duplicate detection
	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles walks the data directory and records every regular file
// by its relative path
func (m *Manager) scanExistingFiles() error {
	return filepath.WalkDir(m.dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(m.dataDir, path)
		if err != nil {
			return err
		}
		m.saved[filepath.ToSlash(rel)] = true
		return nil
	})
}

// Exists checks whether the file at the given relative path has already been
// saved
func (m *Manager) Exists(relPath string) bool {
	m.mu.RLock()
	cached := m.saved[relPath]
	m.mu.RUnlock()
	if cached {
		return true
	}

	// Double-check on disk; another process may have written it
	if _, err := os.Stat(filepath.Join(m.dataDir, filepath.FromSlash(relPath))); err == nil {
		m.mu.Lock()
		m.saved[relPath] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// Save writes the reader's contents to the given relative path. The write is
// atomic: data goes to a temporary file that is renamed into place, so a
// crashed download never leaves a truncated file behind.
func (m *Manager) Save(relPath string, r io.Reader) error {
	filename := filepath.Join(m.dataDir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write file data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[relPath] = true
	m.mu.Unlock()

	return nil
}

// DataDir returns the root data directory path
func (m *Manager) DataDir() string {
	return m.dataDir
}

// SavedCount returns the number of files known to be on disk
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
