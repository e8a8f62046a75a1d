package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Status is the closed set of states the try-on flow can be in. done and
// error are terminal until an explicit reset or retry.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

const DefaultCategory = "tops"

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrImagesMissing = errors.New("both a model image and a garment image are required")

// allowedTransitions is the full transition table. Everything not listed is
// rejected, illegal states stay unrepresentable.
var allowedTransitions = map[Status][]Status{
	StatusIdle:       {StatusUploading},
	StatusUploading:  {StatusProcessing, StatusDone, StatusError},
	StatusProcessing: {StatusDone, StatusError},
	StatusDone:       {StatusIdle},
	StatusError:      {StatusIdle},
}

// State is the visible snapshot a UI renders from.
type State struct {
	ModelImage   string
	GarmentImage string
	Category     string
	ResultURL    string
	Status       Status
	ErrorMessage string
}

func initialState() State {
	return State{Category: DefaultCategory, Status: StatusIdle}
}

// Session drives the status state machine around a single submission call.
// At most one submission is outstanding per entry into uploading; re-entrant
// Submit calls under UI re-render are suppressed.
type Session struct {
	mu        sync.Mutex
	submitter SubmissionProvider
	state     State
	inFlight  bool
}

func NewSession(submitter SubmissionProvider) *Session {
	return &Session{submitter: submitter, state: initialState()}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetModelImage(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ModelImage = uri
	s.state.ErrorMessage = ""
}

func (s *Session) SetGarmentImage(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.GarmentImage = uri
	s.state.ErrorMessage = ""
}

func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Category = category
}

// Reset returns every field to its freshly constructed value, from any state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = initialState()
}

// MarkProcessing flips uploading into processing, for UIs that want to show
// a second phase while the request is outstanding.
func (s *Session) MarkProcessing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(StatusProcessing)
}

// Submit enters uploading and performs exactly one underlying submission.
// Its resolution drives done or error. A call while a submission is already
// outstanding is a no-op.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil
	}
	if s.state.ModelImage == "" || s.state.GarmentImage == "" {
		s.mu.Unlock()
		return ErrImagesMissing
	}
	if err := s.transitionLocked(StatusUploading); err != nil {
		s.mu.Unlock()
		return err
	}
	s.inFlight = true
	modelImage := s.state.ModelImage
	garmentImage := s.state.GarmentImage
	category := s.state.Category
	s.mu.Unlock()

	result, err := s.submitter.SubmitTryOn(ctx, modelImage, garmentImage, category)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		// A Reset during the call leaves the session idle; the late
		// resolution is dropped by the transition table.
		if terr := s.transitionLocked(StatusError); terr == nil {
			s.state.ErrorMessage = err.Error()
		}
		return err
	}
	if terr := s.transitionLocked(StatusDone); terr == nil {
		s.state.ResultURL = result.ResultURL
	}
	return nil
}

// Retry re-arms a failed session and submits again.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Status != StatusError {
		s.mu.Unlock()
		return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, s.state.Status)
	}
	if err := s.transitionLocked(StatusIdle); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.ErrorMessage = ""
	s.mu.Unlock()
	return s.Submit(ctx)
}

func (s *Session) transitionLocked(next Status) error {
	for _, allowed := range allowedTransitions[s.state.Status] {
		if allowed == next {
			s.state.Status = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state.Status, next)
}
