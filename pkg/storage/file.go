package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps one JSON file per collection under dir.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

func (b *FileBackend) Load(_ context.Context, collection string) ([]Record, bool, error) {
	raw, err := os.ReadFile(b.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", b.path(collection), err)
	}
	return records, len(records) > 0, nil
}

// Save writes to a temp file in the same directory and renames it into place
// so readers never see a partial file.
func (b *FileBackend) Save(_ context.Context, collection string, records []Record) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, collection+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(collection))
}
