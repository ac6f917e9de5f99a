package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// File is one output of WriteFiles.
type File struct {
	Name string
	Data []byte
}

// WriteFiles writes every file into dir. All contents are staged to temp files
// first, so a failed write leaves none of the targets touched. Renames happen
// only after every stage succeeded.
func WriteFiles(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, f := range files {
		tmp, err := writeTemp(filepath.Join(dir, f.Name), f.Data)
		if err != nil {
			cleanup()
			return nil, err
		}
		staged = append(staged, tmp)
	}
	written := make([]string, 0, len(files))
	var errs []error
	for i, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.Rename(staged[i], path); err != nil {
			_ = os.Remove(staged[i])
			errs = append(errs, fmt.Errorf("rename %s: %w", f.Name, err))
			continue
		}
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}

func writeTemp(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	return f.Name(), nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}
