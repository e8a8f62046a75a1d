package controllers

import (
	"errors"
	"log"
	"net/http"

	"tryonapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// APIErrorHandler is the single boundary translating typed failures into
// status codes and safe messages. Provider error bodies and stack traces
// never reach the client verbatim.
func APIErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	log.Printf("[Error] %v", err)

	status := http.StatusInternalServerError
	message := "An unexpected error occurred. Please try again."

	var validationErr *services.ValidationError
	var storageErr *services.StorageError
	var aiErr *services.AIGenerationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		if validationErr.TooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		message = validationErr.Message
	case errors.As(err, &storageErr):
		sentry.CaptureException(err)
		message = "Failed to store images. Please try again."
	case errors.As(err, &aiErr):
		sentry.CaptureException(err)
		status = http.StatusBadGateway
		message = "AI service is temporarily unavailable. Please try again."
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	default:
		sentry.CaptureException(err)
	}

	if writeErr := c.JSON(status, ErrorResponse{Success: false, Error: message}); writeErr != nil {
		log.Printf("[Error] failed to write error response: %v", writeErr)
	}
}
