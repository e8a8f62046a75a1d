package services

import "fmt"

// ValidationError reports client-correctable bad input. It is raised before
// any upload or provider call happens.
type ValidationError struct {
	Message string
	// TooLarge marks an oversized image so the boundary can answer 413
	// instead of a plain 400.
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError wraps a failed blob store operation. The underlying cause is
// kept for logging but never forwarded to clients.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// AIGenerationError covers provider submit failures, provider-reported job
// failures and poll timeouts. All three collapse to one user-facing category.
type AIGenerationError struct {
	Reason string
	// Timeout is set when the poll loop exhausted its attempt budget without
	// observing a terminal status.
	Timeout bool
}

func (e *AIGenerationError) Error() string {
	return e.Reason
}
