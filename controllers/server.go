package controllers

import (
	"net/http"

	"tryonapi/services"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		// Optionally, you could return the error to give each route more control over the status code
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	cfg *services.Config,
	blobStore services.BlobStoreProvider,
	generator services.TryOnGeneratorProvider,
) *echo.Echo {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = APIErrorHandler

	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	controller := TryOnController{BlobStore: blobStore, Generator: generator}
	e.GET("/api/health", controller.HealthCheck)
	e.POST("/api/tryon", controller.CreateTryOn)

	return e
}
