// Package fsutil holds small file helpers shared by the pipeline and renderers.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile is a temporary file that replaces its target on Commit.
// Readers of the target never observe a partially written file.
type AtomicFile struct {
	*os.File
	target string
	done   bool
}

// CreateAtomic opens a temporary file next to target.
func CreateAtomic(target string) (*AtomicFile, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("ensure dir for %s: %w", target, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp for %s: %w", target, err)
	}
	return &AtomicFile{File: f, target: target}, nil
}

// Commit closes the temporary file and renames it onto the target.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true
	if err := a.Close(); err != nil {
		_ = os.Remove(a.Name())
		return fmt.Errorf("close temp %s: %w", a.Name(), err)
	}
	if err := os.Chmod(a.Name(), 0o644); err != nil {
		_ = os.Remove(a.Name())
		return fmt.Errorf("chmod temp %s: %w", a.Name(), err)
	}
	if err := os.Rename(a.Name(), a.target); err != nil {
		_ = os.Remove(a.Name())
		return fmt.Errorf("atomic rename %s: %w", a.target, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.Close()
	_ = os.Remove(a.Name())
}

// WriteFileAtomic writes data to a temp file and renames it onto path.
func WriteFileAtomic(path string, data []byte) error {
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return fmt.Errorf("write temp %s: %w", path, err)
	}
	return f.Commit()
}
