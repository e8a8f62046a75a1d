package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSubmitter serves scripted responses; with release set it blocks until
// the channel is closed so tests can observe the in-flight state.
type stubSubmitter struct {
	mu      sync.Mutex
	calls   int
	result  *TryOnResult
	err     error
	release chan struct{}
}

func (s *stubSubmitter) SubmitTryOn(ctx context.Context, modelPath, garmentPath, category string) (*TryOnResult, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	result, err := s.result, s.err
	s.mu.Unlock()
	if release != nil {
		<-release
	}
	return result, err
}

func (s *stubSubmitter) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubSubmitter) Set(result *TryOnResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result, s.err = result, err
}

func newReadySession(submitter SubmissionProvider) *Session {
	session := NewSession(submitter)
	session.SetModelImage("/tmp/model.jpg")
	session.SetGarmentImage("/tmp/garment.jpg")
	return session
}

func waitForStatus(t *testing.T, session *Session, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if session.Snapshot().Status == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session never reached status %s, stuck at %s", want, session.Snapshot().Status)
}

func TestSubmitDrivesDone(t *testing.T) {
	submitter := &stubSubmitter{result: &TryOnResult{ResultURL: "https://x/result.jpg"}}
	session := newReadySession(submitter)

	require.NoError(t, session.Submit(context.Background()))

	state := session.Snapshot()
	assert.Equal(t, StatusDone, state.Status)
	assert.Equal(t, "https://x/result.jpg", state.ResultURL)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, 1, submitter.CallCount())
}

func TestSubmitFailureDrivesError(t *testing.T) {
	submitter := &stubSubmitter{err: errors.New("AI service is temporarily unavailable. Please try again.")}
	session := newReadySession(submitter)

	require.Error(t, session.Submit(context.Background()))

	state := session.Snapshot()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "AI service is temporarily unavailable. Please try again.", state.ErrorMessage)
	assert.Empty(t, state.ResultURL)
}

func TestDoubleSubmitSuppressed(t *testing.T) {
	submitter := &stubSubmitter{
		result:  &TryOnResult{ResultURL: "https://x/result.jpg"},
		release: make(chan struct{}),
	}
	session := newReadySession(submitter)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Submit(context.Background())
	}()
	waitForStatus(t, session, StatusUploading)

	// Re-entrant invocation while the first call is outstanding.
	require.NoError(t, session.Submit(context.Background()))
	require.Equal(t, 1, submitter.CallCount())

	close(submitter.release)
	wg.Wait()
	assert.Equal(t, StatusDone, session.Snapshot().Status)
	assert.Equal(t, 1, submitter.CallCount())
}

func TestResetFromDoneRestoresInitialState(t *testing.T) {
	submitter := &stubSubmitter{result: &TryOnResult{ResultURL: "https://x/result.jpg"}}
	session := newReadySession(submitter)
	session.SetCategory("bottoms")
	require.NoError(t, session.Submit(context.Background()))

	session.Reset()

	assert.Equal(t, State{Category: DefaultCategory, Status: StatusIdle}, session.Snapshot())
}

func TestResetFromErrorRestoresInitialState(t *testing.T) {
	submitter := &stubSubmitter{err: errors.New("boom")}
	session := newReadySession(submitter)
	require.Error(t, session.Submit(context.Background()))

	session.Reset()

	assert.Equal(t, State{Category: DefaultCategory, Status: StatusIdle}, session.Snapshot())
}

func TestResetMidFlightDropsLateResolution(t *testing.T) {
	submitter := &stubSubmitter{
		result:  &TryOnResult{ResultURL: "https://x/result.jpg"},
		release: make(chan struct{}),
	}
	session := newReadySession(submitter)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Submit(context.Background())
	}()
	waitForStatus(t, session, StatusUploading)

	session.Reset()
	close(submitter.release)
	wg.Wait()

	state := session.Snapshot()
	assert.Equal(t, StatusIdle, state.Status)
	assert.Empty(t, state.ResultURL)
}

func TestRetryFromError(t *testing.T) {
	submitter := &stubSubmitter{err: errors.New("boom")}
	session := newReadySession(submitter)
	require.Error(t, session.Submit(context.Background()))
	require.Equal(t, StatusError, session.Snapshot().Status)

	submitter.Set(&TryOnResult{ResultURL: "https://x/result.jpg"}, nil)
	require.NoError(t, session.Retry(context.Background()))

	state := session.Snapshot()
	assert.Equal(t, StatusDone, state.Status)
	assert.Equal(t, "https://x/result.jpg", state.ResultURL)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, 2, submitter.CallCount())
}

func TestRetryOutsideErrorRejected(t *testing.T) {
	session := newReadySession(&stubSubmitter{})

	err := session.Retry(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusIdle, session.Snapshot().Status)
}

func TestSubmitWithoutImages(t *testing.T) {
	submitter := &stubSubmitter{}
	session := NewSession(submitter)

	err := session.Submit(context.Background())
	require.ErrorIs(t, err, ErrImagesMissing)
	assert.Equal(t, StatusIdle, session.Snapshot().Status)
	assert.Equal(t, 0, submitter.CallCount())
}

func TestSubmitFromDoneRejected(t *testing.T) {
	submitter := &stubSubmitter{result: &TryOnResult{ResultURL: "https://x/result.jpg"}}
	session := newReadySession(submitter)
	require.NoError(t, session.Submit(context.Background()))

	err := session.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, submitter.CallCount())
}

func TestMarkProcessingOnlyWhileUploading(t *testing.T) {
	submitter := &stubSubmitter{
		result:  &TryOnResult{ResultURL: "https://x/result.jpg"},
		release: make(chan struct{}),
	}
	session := newReadySession(submitter)

	require.ErrorIs(t, session.MarkProcessing(), ErrInvalidTransition)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Submit(context.Background())
	}()
	waitForStatus(t, session, StatusUploading)

	require.NoError(t, session.MarkProcessing())
	assert.Equal(t, StatusProcessing, session.Snapshot().Status)

	close(submitter.release)
	wg.Wait()
	assert.Equal(t, StatusDone, session.Snapshot().Status)
}

func TestSettersClearStaleError(t *testing.T) {
	submitter := &stubSubmitter{err: errors.New("boom")}
	session := newReadySession(submitter)
	require.Error(t, session.Submit(context.Background()))
	require.NotEmpty(t, session.Snapshot().ErrorMessage)

	session.SetModelImage("/tmp/other.jpg")
	assert.Empty(t, session.Snapshot().ErrorMessage)
}
