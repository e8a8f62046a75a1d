package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// Client timeout exceeds the server-side polling ceiling (2 minutes) plus
// upload time, so under normal conditions it is never the first to fire.
const defaultSubmitTimeout = 120 * time.Second

// TryOnResult is the success payload of one try-on submission.
type TryOnResult struct {
	ResultURL       string `json:"resultUrl"`
	ModelImageURL   string `json:"modelImageUrl"`
	GarmentImageURL string `json:"garmentImageUrl"`
}

// SubmissionProvider sends one try-on request and blocks until resolution.
type SubmissionProvider interface {
	SubmitTryOn(ctx context.Context, modelPath, garmentPath, category string) (*TryOnResult, error)
}

// Client is the outbound half of the mobile flow: it packages two local
// images plus a category into a single multipart request against the relay.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultSubmitTimeout},
	}
}

type submitEnvelope struct {
	Success         bool   `json:"success"`
	Error           string `json:"error"`
	ResultURL       string `json:"resultUrl"`
	ModelImageURL   string `json:"modelImageUrl"`
	GarmentImageURL string `json:"garmentImageUrl"`
}

// SubmitTryOn uploads both images and waits for the composited result. A
// non-success response body becomes an error carrying the server message.
func (c *Client) SubmitTryOn(ctx context.Context, modelPath, garmentPath, category string) (*TryOnResult, error) {
	if category == "" {
		category = DefaultCategory
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := attachImage(writer, "modelImage", "model.jpg", modelPath); err != nil {
		return nil, err
	}
	if err := attachImage(writer, "garmentImage", "garment.jpg", garmentPath); err != nil {
		return nil, err
	}
	if err := writer.WriteField("category", category); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/tryon", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("try-on request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope submitEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("try-on response unreadable (status %d): %w", resp.StatusCode, err)
	}
	if !envelope.Success {
		if envelope.Error != "" {
			return nil, errors.New(envelope.Error)
		}
		return nil, errors.New("Try-on failed")
	}

	return &TryOnResult{
		ResultURL:       envelope.ResultURL,
		ModelImageURL:   envelope.ModelImageURL,
		GarmentImageURL: envelope.GarmentImageURL,
	}, nil
}

// CheckHealth reports whether the relay is reachable.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return health.Status == "ok"
}

func attachImage(writer *multipart.Writer, fieldName, fileName, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", path, err)
	}
	// Non-image bytes are sent as-is and rejected server side.
	if prepared, err := PrepareImage(content); err == nil {
		content = prepared
	}

	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return err
	}
	_, err = part.Write(content)
	return err
}
