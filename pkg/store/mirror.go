package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpMirror talks to a gist-style document store: one remote container
// holding named files, read whole and patched whole.
type httpMirror struct {
	client  *http.Client
	baseURL string
	storeID string
	token   string
}

// NewHTTPMirror creates a Mirror backed by a gist-compatible HTTP API.
//
// Parameters:
//   - baseURL: API root, e.g. "https://api.github.com"
//   - storeID: Remote container id
//   - token: Authorization token
//   - timeout: Per-request client timeout
func NewHTTPMirror(baseURL, storeID, token string, timeout time.Duration) Mirror {
	return &httpMirror{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		storeID: storeID,
		token:   token,
	}
}

// containerDoc matches the wire shape of the remote container: a map of
// file name to content.
type containerDoc struct {
	Files map[string]struct {
		Content string `json:"content"`
	} `json:"files"`
}

// Read implements Mirror.Read.
func (m *httpMirror) Read(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.containerURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build mirror request: %w", err)
	}
	m.setHeaders(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrMirrorUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror response: %w", err)
	}

	var doc containerDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode mirror response: %w", err)
	}

	file, ok := doc.Files[name]
	if !ok || file.Content == "" {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}

	return []byte(file.Content), nil
}

// Write implements Mirror.Write.
func (m *httpMirror) Write(ctx context.Context, name string, doc []byte) error {
	payload, err := json.Marshal(map[string]interface{}{
		"files": map[string]interface{}{
			name: map[string]string{"content": string(doc)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode mirror payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, m.containerURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mirror request: %w", err)
	}
	m.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrMirrorUnavailable, resp.StatusCode)
	}

	return nil
}

func (m *httpMirror) containerURL() string {
	return fmt.Sprintf("%s/gists/%s", m.baseURL, m.storeID)
}

func (m *httpMirror) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+m.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "slotbot")
}
