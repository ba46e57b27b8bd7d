package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// File is the metadata of an uploaded storage object.
type File struct {
	ID       string `json:"$id"`
	BucketID string `json:"bucketId"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"sizeOriginal"`
}

// UploadFile stores a file in the bucket under the given id.
func (c *Client) UploadFile(ctx context.Context, bucketID, fileID, filename string, content []byte) (*File, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("fileId", fileID); err != nil {
		return nil, fmt.Errorf("failed to write multipart field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write multipart file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/storage/buckets/%s/files", c.endpoint, bucketID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to appwrite: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.handleErrorResponse(resp)
	}

	var file File
	if err := decodeJSON(resp, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DeleteFile removes a file from the bucket.
func (c *Client) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/storage/buckets/%s/files/%s", bucketID, fileID), nil, nil)
}

// FileViewURL returns the public view URL for a stored file.
func (c *Client) FileViewURL(bucketID, fileID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s", c.endpoint, bucketID, fileID, c.projectID)
}
