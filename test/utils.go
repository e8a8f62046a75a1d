package test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
)

// BlobStoreCall records one Store invocation for assertions.
type BlobStoreCall struct {
	Size   int
	Mime   string
	Folder string
}

// BlobStoreMock stands in for the R2 blob store. Every call yields a distinct
// fake URL, mirroring the no-dedup contract of the real adapter.
type BlobStoreMock struct {
	mu       sync.Mutex
	Calls    []BlobStoreCall
	FailWith error
	counter  int
}

func (m *BlobStoreMock) Store(ctx context.Context, content []byte, mimeType string, folder string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, BlobStoreCall{Size: len(content), Mime: mimeType, Folder: folder})
	if m.FailWith != nil {
		return "", m.FailWith
	}
	m.counter++
	return fmt.Sprintf("https://cdn.example.com/%s/upload-%d.jpg", folder, m.counter), nil
}

func (m *BlobStoreMock) StoreFromURL(ctx context.Context, sourceURL string, folder string) (string, error) {
	return m.Store(ctx, []byte(sourceURL), "image/jpeg", folder)
}

func (m *BlobStoreMock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// GeneratorCall records one GenerateTryOn invocation.
type GeneratorCall struct {
	ModelURL   string
	GarmentURL string
	Category   string
}

// GeneratorMock stands in for the AI job client. With no Result configured it
// echoes the model image URL, matching mock-mode behavior.
type GeneratorMock struct {
	mu       sync.Mutex
	Calls    []GeneratorCall
	Result   string
	FailWith error
}

func (m *GeneratorMock) GenerateTryOn(ctx context.Context, modelImageURL, garmentImageURL, category string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, GeneratorCall{ModelURL: modelImageURL, GarmentURL: garmentImageURL, Category: category})
	if m.FailWith != nil {
		return "", m.FailWith
	}
	if m.Result != "" {
		return m.Result, nil
	}
	return modelImageURL, nil
}

func (m *GeneratorMock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// NewTryOnRequest builds a multipart try-on request. Pass nil for an image to
// omit that attachment, empty category to omit the field.
func NewTryOnRequest(target string, modelImage, garmentImage []byte, category string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if modelImage != nil {
		part, _ := writer.CreateFormFile("modelImage", "model.jpg")
		part.Write(modelImage)
	}
	if garmentImage != nil {
		part, _ := writer.CreateFormFile("garmentImage", "garment.jpg")
		part.Write(garmentImage)
	}
	if category != "" {
		writer.WriteField("category", category)
	}
	writer.Close()

	req := httptest.NewRequest("POST", target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Add("Accept", "application/json")
	return req
}

// FakeJPEG returns bytes that content-sniff as image/jpeg, padded to size.
func FakeJPEG(size int) []byte {
	header := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	return padTo(header, size)
}

// FakePNG returns bytes that content-sniff as image/png, padded to size.
func FakePNG(size int) []byte {
	header := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	return padTo(header, size)
}

// FakeText returns plain-text bytes, useful for mimetype rejection tests.
func FakeText(size int) []byte {
	return padTo([]byte("definitely not an image "), size)
}

func padTo(header []byte, size int) []byte {
	if size <= len(header) {
		return header[:size]
	}
	out := make([]byte, size)
	copy(out, header)
	return out
}
