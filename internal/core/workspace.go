package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Workspace is a private temporary directory owned by a single conversion.
// Close removes it and everything written into it; it is safe to call more
// than once, so callers defer it right after creation.
type Workspace struct {
	dir string

	once     sync.Once
	closeErr error
}

// NewWorkspace creates a fresh directory under root (os.TempDir when empty).
func NewWorkspace(root, id string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	dir, err := os.MkdirTemp(root, "conv-"+id+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path returns the location of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// WriteFrom copies r into the workspace file name, failing with
// ErrFileTooLarge once more than limit bytes arrive. A limit <= 0 disables
// the check.
func (w *Workspace) WriteFrom(name string, r io.Reader, limit int64) (string, int64, error) {
	path := w.Path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(f, src)
	if err != nil {
		return "", n, fmt.Errorf("write %s: %w", name, err)
	}
	if limit > 0 && n > limit {
		return "", n, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	if err := f.Close(); err != nil {
		return "", n, fmt.Errorf("close %s: %w", name, err)
	}
	return path, n, nil
}

// WriteFile stores data as name inside the workspace.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// Close removes the workspace directory.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.closeErr = os.RemoveAll(w.dir)
	})
	return w.closeErr
}
