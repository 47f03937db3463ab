package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/airsstack/airssys/pkg/osl"
)

// File appends one JSON line per record to a file, creating parent
// directories when the file is opened. Writes are serialized through an internal
// lock; concurrent Record calls never interleave lines.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFile opens (creating if necessary) path for append, creating any
// missing parent directories.
func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, osl.NewSystemError("audit.NewFile", "mkdir", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, osl.NewSystemError("audit.NewFile", "open", err)
	}
	return &File{path: path, f: f}, nil
}

func (a *File) Record(rec osl.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	line, err := json.Marshal(rec)
	if err != nil {
		return osl.NewSystemError("audit.File.Record", "marshal", err)
	}
	line = append(line, '\n')
	if _, err := a.f.Write(line); err != nil {
		return osl.NewSystemError("audit.File.Record", "write", err)
	}
	return nil
}

func (a *File) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Sync()
}

// Close releases the underlying file handle.
func (a *File) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Close()
}
