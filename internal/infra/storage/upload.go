package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// UploadDir holds uploaded documents while they are processed. Files are written with
// the "upload-" prefix so the janitor only ever touches its own leftovers.
type UploadDir struct {
	Path string
}

const uploadPrefix = "upload-"

func NewUploadDir(path string) (*UploadDir, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "leadflow-uploads")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &UploadDir{Path: path}, nil
}

// Save copies at most limit+1 bytes of r to a new temp file, so the caller can tell
// an oversized upload apart from one that is exactly at the limit.
func (d *UploadDir) Save(r io.Reader, limit int64) (*TempDocument, error) {
	f, err := os.CreateTemp(d.Path, uploadPrefix+"*")
	if err != nil {
		return nil, err
	}

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return &TempDocument{Path: f.Name(), Size: n}, nil
}

// IsUpload reports whether name was created by Save.
func IsUpload(name string) bool {
	return len(name) > len(uploadPrefix) && name[:len(uploadPrefix)] == uploadPrefix
}

// TempDocument is an uploaded file on disk. Release deletes it and is safe to call twice.
type TempDocument struct {
	Path string
	Size int64
}

func (d *TempDocument) Bytes() ([]byte, error) {
	return os.ReadFile(d.Path)
}

func (d *TempDocument) Release() error {
	err := os.Remove(d.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
