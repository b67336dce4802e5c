package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"savora/internal/models"
)

// Credentials is the persisted subset of an identity: enough to restore a
// signed-in state, nothing transient.
type Credentials struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Snapshot is the durable whitelist. The keys mirror the two identity
// slices: "auth" for the customer, "admin" for the back office.
type Snapshot struct {
	Auth  *Credentials `json:"auth,omitempty"`
	Admin *Credentials `json:"admin,omitempty"`
}

// Persister stores and restores the credential snapshot.
type Persister interface {
	Save(Snapshot) error
	Load() (Snapshot, error)
}

// FileStore persists the snapshot as a single JSON file, written atomically
// via a temp file and rename so a crash never leaves a torn state file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed persister at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (f *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read state file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode state file: %w", err)
	}
	return snap, nil
}
