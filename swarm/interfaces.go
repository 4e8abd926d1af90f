// Package swarm provides the core interfaces and types for the agent swarm
// messaging system.
package swarm

import (
	"time"
)

// Agent is the capability contract every pluggable handler must satisfy.
// The core never inspects an agent's payload semantics; anything that
// implements this interface can be registered with an Orchestrator.
type Agent interface {
	// ID returns the stable unique identifier used as the routing key
	ID() string

	// Capabilities returns the content-type tags this agent advertises.
	// Used for introspection and status reporting, not enforced at dispatch.
	Capabilities() []string

	// Handle is the single entry point for business logic. Invocations on
	// the same agent instance are never concurrent.
	Handle(msg *Message) *ResponseMessage

	// HealthCheck returns an observational self-report of operational status
	HealthCheck() Health

	// Initialize prepares the agent for dispatch. Called once at
	// orchestrator start.
	Initialize() error

	// Shutdown releases agent resources. Called once during orchestrator
	// shutdown.
	Shutdown() error
}

// HealthStatus represents the reported operational status of an agent.
type HealthStatus int

const (
	// HealthUnknown indicates the agent has not reported a status
	HealthUnknown HealthStatus = iota

	// HealthHealthy indicates the agent is operating normally
	HealthHealthy

	// HealthWarning indicates the agent is degraded but operational
	HealthWarning

	// HealthCritical indicates the agent is not operational
	HealthCritical
)

// String returns a string representation of the health status.
func (s HealthStatus) String() string {
	switch s {
	case HealthHealthy:
		return "healthy"
	case HealthWarning:
		return "warning"
	case HealthCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Health is a non-authoritative self-report returned by an agent's
// HealthCheck.
type Health struct {
	Status       HealthStatus
	Message      string
	LastActivity time.Time
	Metrics      map[string]float64
}

// Healthy creates a Health report with HealthHealthy status.
func Healthy(message string) Health {
	return Health{
		Status:       HealthHealthy,
		Message:      message,
		LastActivity: time.Now(),
		Metrics:      make(map[string]float64),
	}
}

// Warning creates a Health report with HealthWarning status.
func Warning(message string) Health {
	return Health{
		Status:       HealthWarning,
		Message:      message,
		LastActivity: time.Now(),
		Metrics:      make(map[string]float64),
	}
}

// Critical creates a Health report with HealthCritical status.
func Critical(message string) Health {
	return Health{
		Status:       HealthCritical,
		Message:      message,
		LastActivity: time.Now(),
		Metrics:      make(map[string]float64),
	}
}

// LifecycleState tracks an agent's progress through the orchestrator
// lifecycle.
type LifecycleState int

const (
	// StateRegistered indicates the agent is in the registry but not yet
	// initialized
	StateRegistered LifecycleState = iota

	// StateInitialized indicates the agent's Initialize hook succeeded
	StateInitialized

	// StateRunning indicates the orchestrator is dispatching to the agent
	StateRunning

	// StateShutDown indicates the agent's Shutdown hook has been invoked
	StateShutDown
)

// String returns a string representation of the lifecycle state.
func (s LifecycleState) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateShutDown:
		return "shut_down"
	default:
		return "unknown"
	}
}

// Logger provides structured logging capabilities.
type Logger interface {
	// Debug logs a debug message
	Debug(msg string, fields ...Field)

	// Info logs an info message
	Info(msg string, fields ...Field)

	// Warn logs a warning message
	Warn(msg string, fields ...Field)

	// Error logs an error message
	Error(msg string, fields ...Field)

	// With returns a new logger with additional fields
	With(fields ...Field) Logger
}

// Field represents a structured log field.
type Field struct {
	Key   string
	Value interface{}
}

// Config holds configuration parameters for agents and factories.
type Config interface {
	// Get retrieves a configuration value
	Get(key string) interface{}

	// GetString retrieves a string configuration value
	GetString(key string) string

	// GetInt retrieves an integer configuration value
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value
	GetBool(key string) bool

	// GetDuration retrieves a duration configuration value
	GetDuration(key string) time.Duration

	// Set stores a configuration value
	Set(key string, value interface{})

	// Has checks if a configuration key exists
	Has(key string) bool
}
