package broker

import (
	"encoding/json"
	"os"

	"rhfetch/internal"
	"rhfetch/utils"
)

// FileSessionStore persists session records as a JSON file on disk.
// Writes go through a temp file and an atomic rename so an existing record
// is only ever replaced by a complete one.
type FileSessionStore struct {
	path    string
	fileOps *utils.FileOperations
}

// NewFileSessionStore creates a store backed by the given file path
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{
		path:    path,
		fileOps: utils.NewFileOperations(),
	}
}

// Path returns the record's file path
func (s *FileSessionStore) Path() string {
	return s.path
}

// Save atomically replaces any existing record
func (s *FileSessionStore) Save(record *internal.SessionRecord) error {
	if err := s.fileOps.EnsureParentDir(s.path); err != nil {
		return internal.NewFileSystemError("mkdir", s.path, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return internal.NewFileSystemError("encoding", s.path, err)
	}

	// The record may hold a token and optionally a password
	if err := s.fileOps.WriteFileAtomic(s.path, data, 0600); err != nil {
		return internal.NewFileSystemError("writing", s.path, err)
	}
	return nil
}

// Load reads the persisted record. A missing file is a NotFound error;
// expiry checking is the session manager's concern.
func (s *FileSessionStore) Load() (*internal.SessionRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal.NewNotFoundError(s.path)
		}
		return nil, internal.NewFileSystemError("reading", s.path, err)
	}

	var record internal.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, internal.NewFileSystemError("parsing", s.path, err)
	}
	return &record, nil
}

// Delete removes the persisted record; a missing file is not an error
func (s *FileSessionStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return internal.NewFileSystemError("removing", s.path, err)
	}
	return nil
}
