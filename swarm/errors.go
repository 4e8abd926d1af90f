package swarm

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of swarm errors.
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrAgentNotFound represents an agent not found error
	ErrAgentNotFound

	// ErrInvalidAgent represents an invalid agent error
	ErrInvalidAgent

	// ErrInvalidMessage represents an invalid message error
	ErrInvalidMessage

	// ErrDeliveryFailed represents a failure to place a message on a
	// recipient's channel
	ErrDeliveryFailed

	// ErrRequestTimeout represents a correlator deadline expiry
	ErrRequestTimeout

	// ErrAgentInitFailed represents a failure inside an agent's Initialize
	// hook
	ErrAgentInitFailed

	// ErrAgentShutdownFailed represents a failure inside an agent's Shutdown
	// hook
	ErrAgentShutdownFailed

	// ErrOrchestratorRunning represents an operation that is invalid while
	// the orchestrator runs
	ErrOrchestratorRunning

	// ErrInvalidConfiguration represents an invalid configuration error
	ErrInvalidConfiguration
)

// String returns a string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrAgentNotFound:
		return "agent_not_found"
	case ErrInvalidAgent:
		return "invalid_agent"
	case ErrInvalidMessage:
		return "invalid_message"
	case ErrDeliveryFailed:
		return "delivery_failed"
	case ErrRequestTimeout:
		return "request_timeout"
	case ErrAgentInitFailed:
		return "agent_init_failed"
	case ErrAgentShutdownFailed:
		return "agent_shutdown_failed"
	case ErrOrchestratorRunning:
		return "orchestrator_running"
	case ErrInvalidConfiguration:
		return "invalid_configuration"
	default:
		return "unknown"
	}
}

// SwarmError represents an error that occurred in the swarm core.
type SwarmError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewSwarmError creates a new swarm error.
func NewSwarmError(code ErrorCode, message string) *SwarmError {
	return &SwarmError{
		Code:    code,
		Message: message,
	}
}

// NewSwarmErrorWithCause creates a new swarm error with a cause.
func NewSwarmErrorWithCause(code ErrorCode, message string, cause error) *SwarmError {
	return &SwarmError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *SwarmError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap returns the underlying cause error.
func (e *SwarmError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target error by code.
func (e *SwarmError) Is(target error) bool {
	if targetErr, ok := target.(*SwarmError); ok {
		return e.Code == targetErr.Code
	}
	return false
}

// CodeOf extracts the ErrorCode from an error chain, or ErrUnknown.
func CodeOf(err error) ErrorCode {
	var swarmErr *SwarmError
	if errors.As(err, &swarmErr) {
		return swarmErr.Code
	}
	return ErrUnknown
}

// IsTimeout reports whether the error is a correlator request timeout.
func IsTimeout(err error) bool {
	return CodeOf(err) == ErrRequestTimeout
}
