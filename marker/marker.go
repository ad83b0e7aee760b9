// Package marker persists the time of the last ingestion run.
package marker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store reads and writes the last-run timestamp.
type Store interface {
	LastRun(ctx context.Context) (time.Time, error)
	SetLastRun(ctx context.Context, t time.Time) error
}

// File keeps the timestamp as Unix seconds in a text file.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

// LastRun returns the zero time if the file does not exist or is empty.
func (f *File) LastRun(ctx context.Context) (time.Time, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read marker: %w", err)
	}

	s := strings.TrimSpace(string(b))
	if s == "" {
		return time.Time{}, nil
	}
	unix, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse marker %q: %w", s, err)
	}
	return time.Unix(unix, 0), nil
}

// SetLastRun replaces the file through a rename so a reader never sees a
// partial write.
func (f *File) SetLastRun(ctx context.Context, t time.Time) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".last-ran-*")
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.FormatInt(t.Unix(), 10)); err != nil {
		tmp.Close()
		return fmt.Errorf("write marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}
