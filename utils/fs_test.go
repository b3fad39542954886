package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileOperations_EnsureDir(t *testing.T) {
	fileOps := NewFileOperations()
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := fileOps.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Expected directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}

	// Idempotent on existing directories
	if err := fileOps.EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing directory failed: %v", err)
	}
}

func TestFileOperations_WriteStream(t *testing.T) {
	fileOps := NewFileOperations()
	target := filepath.Join(t.TempDir(), "doc.pdf")
	content := strings.Repeat("pdf data ", 1000)

	written, err := fileOps.WriteStream(target, strings.NewReader(content))
	if err != nil {
		t.Fatalf("WriteStream failed: %v", err)
	}
	if written != int64(len(content)) {
		t.Errorf("Expected %d bytes written, got %d", len(content), written)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read target: %v", err)
	}
	if string(data) != content {
		t.Error("Written bytes do not match the stream")
	}

	// No .part file may survive a successful write
	if fileOps.FileExists(target + ".part") {
		t.Error("Expected the partial file to be renamed away")
	}
}

func TestFileOperations_WriteFileAtomic(t *testing.T) {
	fileOps := NewFileOperations()
	target := filepath.Join(t.TempDir(), "record.json")

	if err := fileOps.WriteFileAtomic(target, []byte("first"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := fileOps.WriteFileAtomic(target, []byte("second"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic replace failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read target: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Expected replaced content, got %q", data)
	}
}

func TestFileOperations_FileExists(t *testing.T) {
	fileOps := NewFileOperations()
	path := filepath.Join(t.TempDir(), "exists.txt")

	if fileOps.FileExists(path) {
		t.Error("Expected missing file to not exist")
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !fileOps.FileExists(path) {
		t.Error("Expected file to exist")
	}
}
