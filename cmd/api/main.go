package main

import (
	"fmt"
	"log"
	"time"

	"tryonapi/controllers"
	"tryonapi/services"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := services.LoadConfig()

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: services.GetEnv("ENV", "local"),
		Release:     "tryonapi@1.0.0",
		Debug:       false,
		// Set TracesSampleRate to 1.0 to capture 100%
		// of transactions for performance monitoring.
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	blobStore, err := services.NewR2Service(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	var generator services.TryOnGeneratorProvider
	if cfg.UseMockAI {
		generator = services.NewMockFashnService()
	} else {
		if cfg.FashnAPIKey == "" {
			log.Fatal("FASHN_API_KEY environment variable is not set!")
		}
		generator = services.NewFashnService(cfg)
	}

	e := controllers.SetupServer(cfg, blobStore, generator)
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	fmt.Println("Virtual Try-On Backend")
	fmt.Printf("   Port: %s\n", cfg.Port)
	fmt.Printf("   Mock AI: %v\n", cfg.UseMockAI)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
