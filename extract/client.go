// Package extract wraps the external document-to-markdown conversion
// service: a thin struct holding a configured *http.Client with
// context-aware methods, since the service's REST contract has no SDK
// of its own.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultTimeout is the per-request deadline of the http.Client that
// NewClient builds when it is given none, independent of any deadline
// already on the caller's context. A caller-supplied http.Client keeps
// its own timeout.
const DefaultTimeout = 5 * time.Minute

// convertResponse is the JSON body both /convert and /convert-url
// return.
type convertResponse struct {
	Success      bool   `json:"success"`
	Filename     string `json:"filename,omitempty"`
	URL          string `json:"url,omitempty"`
	Markdown     string `json:"markdown,omitempty"`
	OriginalSize int    `json:"original_size,omitempty"`
	MarkdownSize int    `json:"markdown_size,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Client talks to the remote markdown extractor over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client against baseURL. A zero httpClient argument
// selects a client with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Health reports whether the extractor is reachable and healthy. A
// non-nil error, or a non-2xx status, both count as unhealthy; callers
// should not distinguish the two, only fall back.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Convert POSTs raw bytes to the extractor's /convert endpoint as a
// multipart file upload and returns the markdown it produces. Any
// network error, non-2xx status, or success=false response is returned
// as an error; callers in the extraction handler treat that as a
// per-file fallback trigger, not a pipeline failure.
func (c *Client) Convert(ctx context.Context, fileName, contentType string, content []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("extract: building multipart request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("extract: writing multipart body: %w", err)
	}
	if err := writer.WriteField("filename", fileName); err != nil {
		return "", fmt.Errorf("extract: writing multipart field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("extract: closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", body)
	if err != nil {
		return "", fmt.Errorf("extract: building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doConvert(req)
}

// ConvertURL POSTs a remote URL to the extractor's /convert-url endpoint
// and returns the markdown it produces, following the same contract as
// Convert for a document the caller references by location rather than
// bytes.
func (c *Client) ConvertURL(ctx context.Context, docURL string) (string, error) {
	payload, err := json.Marshal(struct {
		URL string `json:"url"`
	}{URL: docURL})
	if err != nil {
		return "", fmt.Errorf("extract: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert-url", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("extract: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doConvert(req)
}

// doConvert executes req and decodes the shared convertResponse
// envelope, surfacing either a transport error, a non-2xx status, or an
// explicit success=false as a single error return.
func (c *Client) doConvert(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("extract: decoding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("extract: extractor returned status %d: %s", resp.StatusCode, parsed.Error)
	}
	if !parsed.Success {
		return "", fmt.Errorf("extract: extractor reported failure: %s", parsed.Error)
	}
	return parsed.Markdown, nil
}
