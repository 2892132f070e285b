package model

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// APKExtension is the only accepted file extension for submitted files.
const APKExtension = ".apk"

// SelectedFile is a file chosen by the user to be submitted.
type SelectedFile struct {
	Name string
	Size int64
	// Open returns a new reader of the file content, callers must close it.
	Open func() (io.ReadCloser, error)
}

// IsAPK returns true if the file name has the APK extension (case-sensitive).
func (f SelectedFile) IsAPK() bool {
	return strings.HasSuffix(f.Name, APKExtension)
}

// Validate checks the file can be submitted.
func (f SelectedFile) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("file name is required: %w", ErrNotValid)
	}
	if !f.IsAPK() {
		return fmt.Errorf("file %q is not an APK: %w", f.Name, ErrNotValid)
	}
	if f.Size < 0 {
		return fmt.Errorf("file size can't be negative: %w", ErrNotValid)
	}
	if f.Open == nil {
		return fmt.Errorf("file content is required: %w", ErrNotValid)
	}
	return nil
}

// NewSelectedFileFromPath returns a selected file backed by a file on disk.
func NewSelectedFileFromPath(path string) (SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, fmt.Errorf("could not stat file: %w", err)
	}
	if info.IsDir() {
		return SelectedFile{}, fmt.Errorf("%s is a directory: %w", path, ErrNotValid)
	}

	return SelectedFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// NewSelectedFileFromBytes returns a selected file backed by memory.
func NewSelectedFileFromBytes(name string, data []byte) SelectedFile {
	return SelectedFile{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}
