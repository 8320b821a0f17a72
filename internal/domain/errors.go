package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrCardLimitReached indicates the free-tier card cap was hit.
type ErrCardLimitReached struct {
	Limit int
}

func (e *ErrCardLimitReached) Error() string {
	return fmt.Sprintf("card limit reached: free accounts may hold at most %d cards", e.Limit)
}

// ErrHistoryLocked indicates the requested month is outside the free-tier
// viewing window.
type ErrHistoryLocked struct {
	Month string // "2006-01"
}

func (e *ErrHistoryLocked) Error() string {
	return fmt.Sprintf("history locked for month %s", e.Month)
}

// ErrCodec indicates a backup artifact could not be decoded or parsed.
type ErrCodec struct {
	Reason string
}

func (e *ErrCodec) Error() string {
	return fmt.Sprintf("backup codec error: %s", e.Reason)
}

// ErrExternalService indicates a failure in an external collaborator call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
