package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileMode rw-r--r--
const FileMode fs.FileMode = 0644

// WAL is an append-only JSON-lines file. Each Append is fsynced before it returns.
type WAL struct {
	file *os.File
	mu   sync.Mutex
}

// Open opens or creates the log at path, creating parent directories as needed.
func Open(path string) (*WAL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create wal directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open wal %s: %w", path, err)
	}
	return &WAL{file: file}, nil
}

// Append writes v as one JSON line and syncs it to disk.
func (w *WAL) Append(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := json.NewEncoder(w.file).Encode(v); err != nil {
		return err
	}
	return w.file.Sync()
}

// ReadAll calls fn for every record from the start of the file, one at a time,
// so the whole log never has to fit in memory.
func (w *WAL) ReadAll(fn func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	decoder := json.NewDecoder(w.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
}

func (w *WAL) Close() error {
	return w.file.Close()
}
