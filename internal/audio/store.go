package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists SaveState.
type Store interface {
	Load() (SaveState, error)
	Save(SaveState) error
}

// FileStore keeps SaveState as indented JSON in a single file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load returns an empty state when the file is missing or empty.
func (f *FileStore) Load() (SaveState, error) {
	s := SaveState{Prefs: make(map[string]DeviceState)}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("save file read: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return SaveState{Prefs: make(map[string]DeviceState)}, fmt.Errorf("save data decode: %w", err)
	}
	if s.Prefs == nil {
		s.Prefs = make(map[string]DeviceState)
	}
	return s, nil
}

// Save writes through a temporary file so a crash never leaves half a file.
func (f *FileStore) Save(s SaveState) error {
	data, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return fmt.Errorf("save data encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("save file open: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save file write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save file write: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("save file replace: %w", err)
	}
	return nil
}
