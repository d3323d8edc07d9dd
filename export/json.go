package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JSONFile is a JSON array of records on disk that grows one batch at a time.
type JSONFile[T any] struct {
	path string
}

func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path}
}

func (f *JSONFile[T]) Path() string {
	return f.path
}

// Load returns the records in the file. A missing file or one that does not
// hold a JSON array of T reads as empty.
func (f *JSONFile[T]) Load() []T {
	records := []T{}

	b, err := os.ReadFile(f.path)
	if err != nil {
		return records
	}
	if err := json.Unmarshal(b, &records); err != nil || records == nil {
		return []T{}
	}
	return records
}

// Append adds records to the end of the file and rewrites it whole.
func (f *JSONFile[T]) Append(records ...T) error {
	all := append(f.Load(), records...)
	return f.Write(all)
}

// Write replaces the file contents with records, indented by four spaces.
func (f *JSONFile[T]) Write(records []T) error {
	if records == nil {
		records = []T{}
	}

	b, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create dir for %s: %w", f.path, err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
