package swarm

import (
	"fmt"
	"sync"
	"time"
)

// BaseAgent provides the boilerplate half of the Agent interface: identity,
// advertised capabilities, activity tracking, no-op lifecycle hooks, and a
// default health report. Business agents embed it and implement Handle.
type BaseAgent struct {
	id           string
	capabilities []string
	logger       Logger

	mu           sync.Mutex
	lastActivity time.Time
	handled      uint64
}

// NewBaseAgent creates a BaseAgent with the given identity and capability
// tags.
func NewBaseAgent(id string, capabilities []string, logger Logger) *BaseAgent {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &BaseAgent{
		id:           id,
		capabilities: append([]string(nil), capabilities...),
		logger:       logger.With(Field{Key: "agent_id", Value: id}),
		lastActivity: time.Now(),
	}
}

// ID returns the stable unique identifier for this agent.
func (a *BaseAgent) ID() string {
	return a.id
}

// Capabilities returns the advertised content-type tags.
func (a *BaseAgent) Capabilities() []string {
	return append([]string(nil), a.capabilities...)
}

// Logger returns the agent's logger.
func (a *BaseAgent) Logger() Logger {
	return a.logger
}

// Initialize is a no-op lifecycle hook. Embedders override it when they have
// real setup work.
func (a *BaseAgent) Initialize() error {
	return nil
}

// Shutdown is a no-op lifecycle hook.
func (a *BaseAgent) Shutdown() error {
	return nil
}

// HealthCheck returns a healthy report with basic throughput metrics.
func (a *BaseAgent) HealthCheck() Health {
	a.mu.Lock()
	lastActivity := a.lastActivity
	handled := a.handled
	a.mu.Unlock()

	health := Healthy(fmt.Sprintf("agent %s operational", a.id))
	health.LastActivity = lastActivity
	health.Metrics["messages_handled"] = float64(handled)
	return health
}

// TrackActivity records a handled message for health reporting. Embedders
// call it from Handle.
func (a *BaseAgent) TrackActivity() {
	a.mu.Lock()
	a.lastActivity = time.Now()
	a.handled++
	a.mu.Unlock()
}

// MessagesHandled returns how many messages this agent has tracked.
func (a *BaseAgent) MessagesHandled() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handled
}

// LastActivity returns the time of the most recently tracked message.
func (a *BaseAgent) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActivity
}
