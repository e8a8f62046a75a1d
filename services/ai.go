package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Job statuses reported by the Fashn API. "completed" and "failed" are
// terminal, anything else means the job is still in flight.
const (
	FashnStatusStarting   = "starting"
	FashnStatusProcessing = "processing"
	FashnStatusCompleted  = "completed"
	FashnStatusFailed     = "failed"
)

const (
	fashnBaseURL           = "https://api.fashn.ai/v1"
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollAttempts = 60 // 2 minute ceiling together with the interval
	defaultMockDelay       = 3 * time.Second
)

// TryOnGeneratorProvider produces a composited try-on image for two uploaded
// asset URLs. Implementations are picked once at startup and hold for the
// process lifetime.
type TryOnGeneratorProvider interface {
	GenerateTryOn(ctx context.Context, modelImageURL, garmentImageURL, category string) (string, error)
}

// SleepFunc suspends between poll attempts. Injectable so tests can run the
// full attempt budget without wall-clock delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

func SleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// FashnService talks to the real Fashn API: one submit request, then a
// bounded status poll loop. The fixed interval and attempt cap give a
// deterministic worst-case latency of MaxPollAttempts * PollInterval, so a
// blocked provider can never hang the calling request handler indefinitely.
type FashnService struct {
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
	PollInterval    time.Duration
	MaxPollAttempts int
	Sleep           SleepFunc
}

func NewFashnService(cfg *Config) *FashnService {
	return &FashnService{
		APIKey:          cfg.FashnAPIKey,
		BaseURL:         fashnBaseURL,
		HTTPClient:      &http.Client{Timeout: 30 * time.Second},
		PollInterval:    defaultPollInterval,
		MaxPollAttempts: defaultMaxPollAttempts,
		Sleep:           SleepWithContext,
	}
}

type fashnRunRequest struct {
	ModelImage   string `json:"model_image"`
	GarmentImage string `json:"garment_image"`
	Category     string `json:"category"`
}

type fashnRunResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type fashnStatusResponse struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  *string  `json:"error"`
}

func (svc *FashnService) GenerateTryOn(ctx context.Context, modelImageURL, garmentImageURL, category string) (string, error) {
	jobID, err := svc.submitJob(ctx, modelImageURL, garmentImageURL, category)
	if err != nil {
		return "", err
	}
	fmt.Printf("[AI] Job submitted: %s\n", jobID)

	return svc.pollForResult(ctx, jobID)
}

// submitJob starts a try-on job. A failed submit is not a billable job on the
// provider side, so it surfaces immediately without retry and the caller is
// free to rerun the whole operation.
func (svc *FashnService) submitJob(ctx context.Context, modelImageURL, garmentImageURL, category string) (string, error) {
	payload, err := json.Marshal(fashnRunRequest{
		ModelImage:   modelImageURL,
		GarmentImage: garmentImageURL,
		Category:     category,
	})
	if err != nil {
		return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation submit failed: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", svc.BaseURL+"/run", bytes.NewReader(payload))
	if err != nil {
		return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation submit failed: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+svc.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.HTTPClient.Do(req)
	if err != nil {
		return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation submit failed: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation submit got status %d: %s", resp.StatusCode, string(body))}
	}

	var runResponse fashnRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&runResponse); err != nil {
		return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation submit returned bad body: %v", err)}
	}
	if runResponse.ID == "" {
		return "", &AIGenerationError{Reason: "AI generation submit returned no job id"}
	}
	return runResponse.ID, nil
}

// pollForResult fetches job status on a fixed interval until a terminal
// status or the attempt budget runs out. A "completed" status with an empty
// output list is not terminal, the result simply is not there yet. One
// transient transport failure fails the whole operation, polls are not
// individually retried.
func (svc *FashnService) pollForResult(ctx context.Context, jobID string) (string, error) {
	for attempt := 0; attempt < svc.MaxPollAttempts; attempt++ {
		status, err := svc.fetchStatus(ctx, jobID)
		if err != nil {
			return "", err
		}
		fmt.Printf("[AI] Poll attempt %d: status=%s\n", attempt+1, status.Status)

		if status.Status == FashnStatusCompleted && len(status.Output) > 0 {
			return status.Output[0], nil
		}
		if status.Status == FashnStatusFailed {
			detail := "Unknown error"
			if status.Error != nil && *status.Error != "" {
				detail = *status.Error
			}
			return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation failed: %s", detail)}
		}

		if err := svc.Sleep(ctx, svc.PollInterval); err != nil {
			return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation interrupted: %v", err)}
		}
	}

	ceiling := time.Duration(svc.MaxPollAttempts) * svc.PollInterval
	return "", &AIGenerationError{
		Reason:  fmt.Sprintf("AI generation timed out after %v", ceiling),
		Timeout: true,
	}
}

func (svc *FashnService) fetchStatus(ctx context.Context, jobID string) (*fashnStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", svc.BaseURL+"/status/"+jobID, nil)
	if err != nil {
		return nil, &AIGenerationError{Reason: fmt.Sprintf("AI status check failed: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+svc.APIKey)

	resp, err := svc.HTTPClient.Do(req)
	if err != nil {
		return nil, &AIGenerationError{Reason: fmt.Sprintf("AI status check failed: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &AIGenerationError{Reason: fmt.Sprintf("AI status check got status %d: %s", resp.StatusCode, string(body))}
	}

	var status fashnStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, &AIGenerationError{Reason: fmt.Sprintf("AI status check returned bad body: %v", err)}
	}
	return &status, nil
}

// MockFashnService bypasses the provider entirely: it simulates a fixed
// processing delay and hands back the model image URL as the result. Used in
// environments without provider credentials; same contract as the live client.
type MockFashnService struct {
	Delay time.Duration
	Sleep SleepFunc
}

func NewMockFashnService() *MockFashnService {
	return &MockFashnService{
		Delay: defaultMockDelay,
		Sleep: SleepWithContext,
	}
}

func (svc *MockFashnService) GenerateTryOn(ctx context.Context, modelImageURL, garmentImageURL, category string) (string, error) {
	fmt.Println("[AI Mock] Simulating try-on generation...")
	fmt.Printf("  Model: %s\n", modelImageURL)
	fmt.Printf("  Garment: %s\n", garmentImageURL)
	fmt.Printf("  Category: %s\n", category)

	if err := svc.Sleep(ctx, svc.Delay); err != nil {
		return "", &AIGenerationError{Reason: fmt.Sprintf("AI generation interrupted: %v", err)}
	}
	return modelImageURL, nil
}
