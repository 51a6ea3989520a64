package foundry

import (
	"context"
	"fmt"
	"io"
)

// FilesAPI uploads and manages files used by agent tools.
type FilesAPI struct {
	httpClient *httpClient
}

// Upload sends a file as multipart form data.
func (f *FilesAPI) Upload(upload FileUpload) (File, error) {
	return f.UploadWithContext(context.Background(), upload)
}

// UploadWithContext uploads a file with a caller-supplied context.
func (f *FilesAPI) UploadWithContext(ctx context.Context, upload FileUpload) (File, error) {
	rc, err := upload.open()
	if err != nil {
		return File{}, err
	}
	defer rc.Close()

	name := upload.filename()
	fields := map[string]string{"purpose": string(upload.purpose())}
	var resp File
	if err := f.httpClient.postMultipart(ctx, "/files", fields, "file", name, rc, &resp); err != nil {
		return File{}, fmt.Errorf("upload file %s: %w", name, err)
	}
	return resp, nil
}

// UploadReader uploads the contents of r under name.
func (f *FilesAPI) UploadReader(ctx context.Context, r io.Reader, name string, purpose FilePurpose) (File, error) {
	return f.UploadWithContext(ctx, FileUpload{Reader: r, Filename: name, Purpose: purpose})
}

// UploadPath uploads a local file.
func (f *FilesAPI) UploadPath(ctx context.Context, path string, purpose FilePurpose) (File, error) {
	return f.UploadWithContext(ctx, FileUpload{Path: path, Purpose: purpose})
}

// Retrieve fetches file metadata.
func (f *FilesAPI) Retrieve(fileID string) (File, error) {
	return f.RetrieveWithContext(context.Background(), fileID)
}

// RetrieveWithContext fetches file metadata with a caller-supplied context.
func (f *FilesAPI) RetrieveWithContext(ctx context.Context, fileID string) (File, error) {
	if fileID == "" {
		return File{}, fmt.Errorf("fileID cannot be empty")
	}
	var resp File
	if err := f.httpClient.getJSON(ctx, "/files/"+pathEscape(fileID), nil, &resp); err != nil {
		return File{}, fmt.Errorf("retrieve file %s: %w", fileID, err)
	}
	return resp, nil
}

// Delete removes an uploaded file.
func (f *FilesAPI) Delete(fileID string) error {
	return f.DeleteWithContext(context.Background(), fileID)
}

// DeleteWithContext removes a file with a caller-supplied context.
func (f *FilesAPI) DeleteWithContext(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("fileID cannot be empty")
	}
	var resp DeletionStatus
	if err := f.httpClient.deleteJSON(ctx, "/files/"+pathEscape(fileID), &resp); err != nil {
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}
	return nil
}
