package foundry

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// FilePurpose is the intended use of an uploaded file.
type FilePurpose string

const (
	PurposeAgents       FilePurpose = "assistants"
	PurposeAgentsOutput FilePurpose = "assistants_output"
	PurposeVision       FilePurpose = "vision"
)

// FileUpload describes a file to upload. Exactly one of Path or Reader
// must be set.
type FileUpload struct {
	Path     string
	Reader   io.Reader
	Filename string
	Purpose  FilePurpose

	// MaxBytes rejects larger Path uploads when positive.
	MaxBytes int64
}

func (f FileUpload) filename() string {
	if f.Filename != "" {
		return f.Filename
	}
	if f.Path != "" {
		return filepath.Base(f.Path)
	}
	return "upload"
}

func (f FileUpload) purpose() FilePurpose {
	if f.Purpose == "" {
		return PurposeAgents
	}
	return f.Purpose
}

func mimeTypeFor(filename string) string {
	if typ := mime.TypeByExtension(filepath.Ext(filename)); typ != "" {
		return typ
	}
	return "application/octet-stream"
}

// open returns the upload body. The caller closes it.
func (f FileUpload) open() (io.ReadCloser, error) {
	switch {
	case f.Reader != nil && f.Path != "":
		return nil, errors.New("file upload accepts Path or Reader, not both")
	case f.Reader != nil:
		if rc, ok := f.Reader.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(f.Reader), nil
	case f.Path != "":
		return openUploadPath(f.Path, f.MaxBytes)
	default:
		return nil, errors.New("file upload requires Path or Reader")
	}
}

func openUploadPath(path string, limit int64) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	if err := checkUploadable(file, limit); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// checkUploadable stats the open handle so the checked file is the one sent.
func checkUploadable(file *os.File, limit int64) error {
	info, err := file.Stat()
	switch {
	case err != nil:
		return fmt.Errorf("stat file %s: %w", file.Name(), err)
	case info.IsDir():
		return fmt.Errorf("%s is a directory", file.Name())
	case info.Size() == 0:
		return fmt.Errorf("file %s is empty", file.Name())
	case limit > 0 && info.Size() > limit:
		return fmt.Errorf("file %s is %d bytes and exceeds max size of %d bytes", file.Name(), info.Size(), limit)
	}
	return nil
}
