package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tryonapi/services"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const maxImageSizeBytes = 5 * 1024 * 1024
const uploadFolder = "virtual-tryon/uploads"

type TryOnIn struct {
	Category string `form:"category" validate:"omitempty,oneof=tops bottoms one-pieces"`
}

type TryOnResponse struct {
	Success         bool   `json:"success"`
	ResultURL       string `json:"resultUrl"`
	ModelImageURL   string `json:"modelImageUrl"`
	GarmentImageURL string `json:"garmentImageUrl"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type TryOnController struct {
	BlobStore services.BlobStoreProvider
	Generator services.TryOnGeneratorProvider
}

// CreateTryOn handles one full try-on request: validate, upload both images
// concurrently, run the AI job to resolution and answer with the composed
// result. Failures propagate as typed errors to APIErrorHandler.
func (controller *TryOnController) CreateTryOn(c echo.Context) error {
	var req TryOnIn
	if err := c.Bind(&req); err != nil {
		return &services.ValidationError{Message: "Invalid request body"}
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	category := req.Category
	if category == "" {
		category = "tops"
	}

	modelContent, modelMime, err := readImageFile(c, "modelImage")
	if err != nil {
		return err
	}
	garmentContent, garmentMime, err := readImageFile(c, "garmentImage")
	if err != nil {
		return err
	}

	fmt.Printf("[TryOn] Processing request - category: %s\n", category)
	fmt.Printf("  Model image: %d bytes (%s)\n", len(modelContent), modelMime)
	fmt.Printf("  Garment image: %d bytes (%s)\n", len(garmentContent), garmentMime)

	// The AI poll loop is deliberately not tied to the request socket: a
	// client that gives up and disconnects does not abandon a job the
	// provider is already running.
	opCtx := context.Background()

	var modelImageURL, garmentImageURL string
	g, gctx := errgroup.WithContext(opCtx)
	g.Go(func() error {
		url, err := controller.BlobStore.Store(gctx, modelContent, modelMime, uploadFolder)
		modelImageURL = url
		return err
	})
	g.Go(func() error {
		url, err := controller.BlobStore.Store(gctx, garmentContent, garmentMime, uploadFolder)
		garmentImageURL = url
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("[TryOn] Images uploaded to cloud storage")

	resultURL, err := controller.Generator.GenerateTryOn(opCtx, modelImageURL, garmentImageURL, category)
	if err != nil {
		return err
	}
	fmt.Printf("[TryOn] AI result generated: %s\n", resultURL)

	return c.JSON(http.StatusOK, TryOnResponse{
		Success:         true,
		ResultURL:       resultURL,
		ModelImageURL:   modelImageURL,
		GarmentImageURL: garmentImageURL,
	})
}

func (controller *TryOnController) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// readImageFile pulls one multipart image attachment, enforcing the size
// ceiling before reading and the encoding allow-list on the sniffed content.
func readImageFile(c echo.Context, fieldName string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(fieldName)
	if err != nil {
		return nil, "", &services.ValidationError{Message: "Both modelImage and garmentImage are required."}
	}
	if fileHeader.Size > maxImageSizeBytes {
		return nil, "", &services.ValidationError{Message: "Image must be under 5MB.", TooLarge: true}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", &services.ValidationError{Message: fmt.Sprintf("Could not read %s.", fieldName)}
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImageSizeBytes+1))
	if err != nil {
		return nil, "", &services.ValidationError{Message: fmt.Sprintf("Could not read %s.", fieldName)}
	}
	if len(content) > maxImageSizeBytes {
		return nil, "", &services.ValidationError{Message: "Image must be under 5MB.", TooLarge: true}
	}

	mimeType := http.DetectContentType(content)
	if !services.AllowedImageMimeTypes[mimeType] {
		return nil, "", &services.ValidationError{
			Message: fmt.Sprintf("Invalid file type: %s. Only JPEG, PNG, and WebP are allowed.", mimeType),
		}
	}
	return content, mimeType, nil
}
