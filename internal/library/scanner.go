// Package library manages the on-disk document library that feeds the index.
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScannedFile represents a document file found during a library scan.
type ScannedFile struct {
	Filename string // Base filename (unique key in the index)
	AbsPath  string // Absolute file path
}

// Manager provides access to the document library directory.
type Manager struct {
	root string
}

// NewManager creates a manager over the given library directory, creating it
// if it does not exist.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the library directory path.
func (m *Manager) Root() string {
	return m.root
}

// AbsPath returns the absolute path of a document by filename.
func (m *Manager) AbsPath(filename string) string {
	return filepath.Join(m.root, filepath.Base(filename))
}

// Store writes a document into the library, overwriting any existing file
// with the same name. Only .md and .txt files are accepted.
func (m *Manager) Store(filename string, content []byte) (string, error) {
	filename = filepath.Base(filename)
	if !supportedExt(filename) {
		return "", fmt.Errorf("unsupported file type: %s", filename)
	}
	absPath := filepath.Join(m.root, filename)
	if err := os.WriteFile(absPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to store document: %w", err)
	}
	return absPath, nil
}

// Remove deletes a document file from the library. A missing file is not an
// error: the index entry is what matters.
func (m *Manager) Remove(filename string) error {
	err := os.Remove(m.AbsPath(filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// Scan walks the library and returns all supported document files. Hidden
// files and subdirectories beyond the first level are skipped.
func (m *Manager) Scan(ctx context.Context) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != m.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") || !supportedExt(path) {
			return nil
		}

		files = append(files, ScannedFile{
			Filename: info.Name(),
			AbsPath:  path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan library: %w", err)
	}

	return files, nil
}

func supportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		return true
	}
	return false
}
