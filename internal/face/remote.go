package face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// RemoteDetector calls an external inference service over HTTP. The
// service exposes POST /detect (multipart "image" -> {"faces": n}) and
// POST /match (multipart "captured"+"registered" -> {"distance": d}).
type RemoteDetector struct {
	baseURL string
	client  *http.Client
}

// NewRemoteDetector builds a detector client for the given base URL.
func NewRemoteDetector(baseURL string, timeout time.Duration) *RemoteDetector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteDetector{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// DetectFaces implements Detector.
func (d *RemoteDetector) DetectFaces(ctx context.Context, image io.Reader) (int, error) {
	body, contentType, err := multipartBody(map[string]io.Reader{"image": image})
	if err != nil {
		return 0, err
	}
	var out struct {
		Faces int `json:"faces"`
	}
	if err := d.post(ctx, "/detect", body, contentType, &out); err != nil {
		return 0, err
	}
	return out.Faces, nil
}

// Match implements Matcher.
func (d *RemoteDetector) Match(ctx context.Context, captured, registered io.Reader) (float64, error) {
	body, contentType, err := multipartBody(map[string]io.Reader{
		"captured":   captured,
		"registered": registered,
	})
	if err != nil {
		return 0, err
	}
	var out struct {
		Distance float64 `json:"distance"`
	}
	if err := d.post(ctx, "/match", body, contentType, &out); err != nil {
		return 0, err
	}
	return out.Distance, nil
}

func (d *RemoteDetector) post(ctx context.Context, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build face request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("call face service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("face service returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode face response: %w", err)
	}
	return nil
}

func multipartBody(parts map[string]io.Reader) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for field, r := range parts {
		part, err := writer.CreateFormFile(field, field+".jpg")
		if err != nil {
			return nil, "", fmt.Errorf("create form part: %w", err)
		}
		if _, err := io.Copy(part, r); err != nil {
			return nil, "", fmt.Errorf("copy form part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}
