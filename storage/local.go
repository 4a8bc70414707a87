package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider implements Provider for the local filesystem.
type LocalProvider struct {
	basePath string
}

// NewLocalProvider creates a provider rooted at basePath.
func NewLocalProvider(basePath string) (*LocalProvider, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: base path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: base path %s is not a directory", basePath)
	}
	return &LocalProvider{basePath: basePath}, nil
}

// Get reads the named object from disk.
func (p *LocalProvider) Get(_ context.Context, name string) ([]byte, error) {
	path, err := p.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// Exists reports whether the named object is present on disk.
func (p *LocalProvider) Exists(_ context.Context, name string) (bool, error) {
	path, err := p.resolve(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *LocalProvider) Name() string { return "local" }

// resolve joins the object name under basePath, rejecting traversal out of
// the root.
func (p *LocalProvider) resolve(name string) (string, error) {
	cleaned := filepath.Clean("/" + name)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid object name %q", name)
	}
	return filepath.Join(p.basePath, cleaned), nil
}
