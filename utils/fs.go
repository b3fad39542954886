package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileOperations provides file system utilities
type FileOperations struct{}

// NewFileOperations creates a new FileOperations instance
func NewFileOperations() *FileOperations {
	return &FileOperations{}
}

// EnsureDir creates the directory if it doesn't exist
func (f *FileOperations) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// EnsureParentDir creates the parent directory of path if it doesn't exist
func (f *FileOperations) EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

// FileExists checks if a file exists
func (f *FileOperations) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file
func (f *FileOperations) GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// AtomicRename performs an atomic file rename operation
func (f *FileOperations) AtomicRename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// WriteStream copies r into path via a temporary .part file and an atomic
// rename, so a crash mid-write never leaves a truncated file at the final
// path. Returns the number of bytes written.
func (f *FileOperations) WriteStream(path string, r io.Reader) (written int64, err error) {
	partPath := path + ".part"

	file, err := os.OpenFile(partPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create partial file: %w", err)
	}

	written, err = io.Copy(file, r)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		os.Remove(partPath)
		return written, fmt.Errorf("failed to write %s: %w", partPath, err)
	}

	if err := f.AtomicRename(partPath, path); err != nil {
		os.Remove(partPath)
		return written, fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return written, nil
}

// WriteFileAtomic writes data to path via a temporary file and an atomic
// rename, replacing any existing file only on success
func (f *FileOperations) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	if err := f.AtomicRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
