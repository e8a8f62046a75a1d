package services

import (
	"fmt"
	"io"
	"net/http"
)

// Encodings accepted for uploaded images. Anything else is rejected before a
// byte leaves the process.
var AllowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ExtensionForMime returns the object key extension for a known image mime
// type, ".bin" otherwise.
func ExtensionForMime(mimeType string) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}
	return ".bin"
}

func StrPointer(str string) *string {
	if str == "" {
		return nil
	}
	return &str
}

func ReadFileFromUrl(url string) ([]byte, error) {
	httpClient := &http.Client{}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %v", err)
	}

	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch file, status code: %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	return content, nil
}
