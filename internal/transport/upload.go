package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/iksnae/chat-session/internal"
)

// HTTPUploader uploads files as multipart/form-data under the "files" field
type HTTPUploader struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

type uploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type uploadResponse struct {
	Files []uploadedFile `json:"files"`
	Data  []uploadedFile `json:"data"`
}

// NewHTTPUploader creates an uploader posting to endpoint
func NewHTTPUploader(endpoint, apiKey string, timeout time.Duration) *HTTPUploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPUploader{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the upload URL
func (u *HTTPUploader) Endpoint() string {
	return u.endpoint
}

// Upload implements internal.Uploader. When the backend does not describe
// the stored files, references fall back to the local names with fresh ids.
func (u *HTTPUploader) Upload(ctx context.Context, files []internal.LocalFile) ([]internal.FileRef, error) {
	if len(files) == 0 {
		return nil, nil
	}

	body, contentType, err := encodeMultipart(files)
	if err != nil {
		return nil, &internal.TransportError{Op: "upload", Endpoint: u.endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, &internal.TransportError{Op: "upload", Endpoint: u.endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, &internal.TransportError{Op: "upload", Endpoint: u.endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &internal.TransportError{Op: "upload", Endpoint: u.endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &internal.TransportError{
			Op:         "upload",
			Endpoint:   u.endpoint,
			StatusCode: resp.StatusCode,
			Err:        errors.New(ErrorMessage(resp.StatusCode, respBody)),
		}
	}

	return parseUploadResponse(respBody, files), nil
}

func encodeMultipart(files []internal.LocalFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, file := range files {
		if err := addFilePart(writer, file); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func addFilePart(writer *multipart.Writer, file internal.LocalFile) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile("files", file.Name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", file.Name, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", file.Name, err)
	}
	return nil
}

func parseUploadResponse(body []byte, files []internal.LocalFile) []internal.FileRef {
	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		internal.LogDebug("Upload response not understood, using local names: %v", err)
	}

	uploaded := parsed.Files
	if len(uploaded) == 0 {
		uploaded = parsed.Data
	}

	refs := make([]internal.FileRef, 0, len(files))
	for i, file := range files {
		ref := internal.FileRef{Name: file.Name, Size: file.Size}
		if i < len(uploaded) {
			if uploaded[i].ID != "" {
				ref.ID = uploaded[i].ID
			}
			if uploaded[i].Name != "" {
				ref.Name = uploaded[i].Name
			}
			if uploaded[i].Size > 0 {
				ref.Size = uploaded[i].Size
			}
		}
		if ref.ID == "" {
			ref.ID = uuid.NewString()
		}
		refs = append(refs, ref)
	}
	return refs
}
