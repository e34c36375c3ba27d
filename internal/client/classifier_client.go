package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"complaint-service/internal/config"
)

var ErrClassifierDisabled = errors.New("classifier service URL is not configured")

type classifyResponse struct {
	Categories []string `json:"categories"`
}

// ClassifierClient sends complaint photos to the image classifier and returns its labels.
type ClassifierClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

func NewClassifierClient(cfg config.ClassifierConfig) *ClassifierClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClassifierClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
	}
}

func (c *ClassifierClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

func (c *ClassifierClient) Classify(ctx context.Context, image []byte, filename string) ([]string, error) {
	if !c.Enabled() {
		return nil, ErrClassifierDisabled
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if filename == "" {
		filename = "image.jpg"
	}

	body, contentType, err := multipartImage(image, filepath.Base(filename))
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		// the body reader is consumed by each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode < http.StatusInternalServerError {
			break
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("classifier returned status %d", resp.StatusCode)
			resp.Body.Close()
			resp = nil
		}
		if attempt == c.maxRetries-1 {
			return nil, fmt.Errorf("failed to execute request after %d attempts: %w", c.maxRetries, lastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.backoff):
		}
	}
	if resp == nil {
		return nil, fmt.Errorf("failed to execute request: %w", lastErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed classifyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Categories == nil {
		return []string{}, nil
	}
	return parsed.Categories, nil
}

func multipartImage(image []byte, filename string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
