package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileStoreVersion is written to state.yaml
const FileStoreVersion = "1.0"

// FilePersister stores the snapshot as files in a directory:
// sessions.json holds the sessions mapping and state.yaml the current id.
type FilePersister struct {
	dir string
	now func() time.Time
}

// FileState is the content of state.yaml
type FileState struct {
	CurrentSessionID string    `yaml:"current_session_id"`
	Version          string    `yaml:"version"`
	UpdatedAt        time.Time `yaml:"updated_at"`
}

// NewFilePersister creates a persister rooted at dir
func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{dir: dir, now: time.Now}
}

// Dir returns the storage directory
func (fp *FilePersister) Dir() string {
	return fp.dir
}

// SessionsPath returns the path to the sessions mapping file
func (fp *FilePersister) SessionsPath() string {
	return filepath.Join(fp.dir, "sessions.json")
}

// StatePath returns the path to the state file
func (fp *FilePersister) StatePath() string {
	return filepath.Join(fp.dir, "state.yaml")
}

// Load reads both files. Missing files mean nothing was stored.
func (fp *FilePersister) Load() (*Snapshot, error) {
	sessions, err := readOptional(fp.SessionsPath())
	if err != nil {
		return nil, &StorageError{Backend: BackendFile, Op: "load", Err: err}
	}

	state, err := fp.LoadState()
	if err != nil {
		return nil, err
	}
	currentID := ""
	if state != nil {
		currentID = state.CurrentSessionID
	}

	return decodeSnapshot(BackendFile, string(sessions), currentID)
}

// LoadState reads state.yaml, returning nil when it does not exist
func (fp *FilePersister) LoadState() (*FileState, error) {
	data, err := readOptional(fp.StatePath())
	if err != nil {
		return nil, &StorageError{Backend: BackendFile, Op: "load", Err: err}
	}
	if data == nil {
		return nil, nil
	}

	var state FileState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, &ParseError{Source: BackendFile, Key: fp.StatePath(), Err: err}
	}
	return &state, nil
}

// Save writes the sessions file and then the state file
func (fp *FilePersister) Save(snapshot *Snapshot) error {
	if err := os.MkdirAll(fp.dir, 0755); err != nil {
		return &StorageError{Backend: BackendFile, Op: "save", Err: err}
	}

	sessions, err := encodeSessions(snapshot)
	if err != nil {
		return &StorageError{Backend: BackendFile, Op: "save", Err: err}
	}
	if err := writeFileAtomic(fp.SessionsPath(), []byte(sessions)); err != nil {
		return &StorageError{Backend: BackendFile, Op: "save", Err: err}
	}

	state := FileState{
		CurrentSessionID: snapshot.CurrentSessionID,
		Version:          FileStoreVersion,
		UpdatedAt:        fp.now(),
	}
	data, err := yaml.Marshal(&state)
	if err != nil {
		return &StorageError{Backend: BackendFile, Op: "save", Err: fmt.Errorf("failed to marshal state: %w", err)}
	}
	if err := writeFileAtomic(fp.StatePath(), data); err != nil {
		return &StorageError{Backend: BackendFile, Op: "save", Err: err}
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// writeFileAtomic writes to a temp file in the same directory and renames it
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
