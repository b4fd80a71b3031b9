package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileRecorder writes each record to a new file in dir.
type FileRecorder struct {
	dir    string
	format Format
	now    func() time.Time
}

func NewFileRecorder(dir string, format Format) (*FileRecorder, error) {
	if dir == "" {
		dir = "."
	}
	f, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	return &FileRecorder{dir: dir, format: f, now: time.Now}, nil
}

// Record serializes rec and writes it to a freshly created file, returning
// its path. An existing file is never opened for writing: on a name clash a
// random suffix is added and creation is attempted once more.
func (r *FileRecorder) Record(rec Record) (string, error) {
	data, err := r.format.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	name := r.format.Filename(rec, r.now())
	path := filepath.Join(r.dir, name)
	err = writeNew(path, data)
	if errors.Is(err, os.ErrExist) {
		ext := r.format.Ext()
		path = filepath.Join(r.dir, strings.TrimSuffix(name, ext)+"-"+uuid.NewString()[:8]+ext)
		err = writeNew(path, data)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return path, nil
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Load reads a record file back, choosing the shape by extension.
func Load(path string) (Record, error) {
	var f Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f = FormatYAML
	case ".json":
		f = FormatJSON
	default:
		return Record{}, fmt.Errorf("load %s: unknown record extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("open read: %w", err)
	}
	return f.Unmarshal(data)
}
