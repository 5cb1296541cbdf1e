package history

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/vmihailenco/msgpack/v5"
)

// Backend persists the history table.
type Backend interface {
	// Load returns the stored records; missing storage is not an error.
	Load() ([]Record, error)
	// Save replaces the stored table with records.
	Save(records []Record) error
	Close() error
	Path() string
}

// Upserter is implemented by backends that can write one record in place.
type Upserter interface {
	Upsert(r Record) error
}

const fileVersion = 1

type fileSnapshot struct {
	Version int      `msgpack:"version"`
	Records []Record `msgpack:"records"`
}

// FileBackend stores the table as one msgpack snapshot, replaced atomically
// on every save.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend for path. The file is created on first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load() ([]Record, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap fileSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	if snap.Version != fileVersion {
		return nil, fmt.Errorf("decode %s: unsupported version %d", b.path, snap.Version)
	}
	return snap.Records, nil
}

func (b *FileBackend) Save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return utils.WriteFileAtomic(b.path, func(w io.Writer) error {
		return msgpack.NewEncoder(w).Encode(&fileSnapshot{Version: fileVersion, Records: records})
	})
}

func (b *FileBackend) Close() error {
	return nil
}
