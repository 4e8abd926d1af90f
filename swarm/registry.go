package swarm

import (
	"fmt"
	"sync"
	"time"
)

// registration is the registry record for one agent: the agent itself, its
// declared capabilities, its lifecycle state, and the mutex serializing
// Handle invocations.
type registration struct {
	id           string
	agent        Agent
	capabilities []string
	registeredAt time.Time

	stateMu sync.Mutex
	state   LifecycleState

	// handleMu guarantees at most one Handle call at a time per agent.
	handleMu sync.Mutex
}

func (r *registration) setState(state LifecycleState) {
	r.stateMu.Lock()
	r.state = state
	r.stateMu.Unlock()
}

func (r *registration) currentState() LifecycleState {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.state
}

// AgentRegistry is a thread-safe registry of agents keyed by id. It is
// mutated during orchestrator-controlled phases and read concurrently by the
// dispatch path.
type AgentRegistry struct {
	mu      sync.RWMutex
	records map[string]*registration
	logger  Logger
}

// NewAgentRegistry creates a new agent registry.
func NewAgentRegistry(logger Logger) *AgentRegistry {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &AgentRegistry{
		records: make(map[string]*registration),
		logger:  logger,
	}
}

// Register adds an agent. Registering an id twice overwrites the previous
// record.
func (r *AgentRegistry) Register(agent Agent) error {
	if agent == nil {
		return NewSwarmError(ErrInvalidAgent, "agent cannot be nil")
	}

	agentID := agent.ID()
	if agentID == "" {
		return NewSwarmError(ErrInvalidAgent, "agent ID cannot be empty")
	}

	record := &registration{
		id:           agentID,
		agent:        agent,
		capabilities: agent.Capabilities(),
		registeredAt: time.Now(),
		state:        StateRegistered,
	}

	r.mu.Lock()
	_, replaced := r.records[agentID]
	r.records[agentID] = record
	total := len(r.records)
	r.mu.Unlock()

	if replaced {
		r.logger.Warn("Agent registration overwritten", Field{Key: "agent_id", Value: agentID})
	}
	r.logger.Info("Agent registered",
		Field{Key: "agent_id", Value: agentID},
		Field{Key: "total_agents", Value: total},
	)

	return nil
}

// get retrieves a registration record by id.
func (r *AgentRegistry) get(agentID string) (*registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[agentID]
	return record, ok
}

// list returns a snapshot of all registration records.
func (r *AgentRegistry) list() []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*registration, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	return records
}

// IDs returns the ids of all registered agents.
func (r *AgentRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered agents.
func (r *AgentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// State returns the lifecycle state of an agent.
func (r *AgentRegistry) State(agentID string) (LifecycleState, error) {
	record, ok := r.get(agentID)
	if !ok {
		return StateRegistered, NewSwarmError(ErrAgentNotFound, fmt.Sprintf("agent %s not found", agentID))
	}
	return record.currentState(), nil
}

// States returns a snapshot of every agent's lifecycle state.
func (r *AgentRegistry) States() map[string]LifecycleState {
	states := make(map[string]LifecycleState)
	for _, record := range r.list() {
		states[record.id] = record.currentState()
	}
	return states
}

// Capabilities returns the declared capability tags per agent id.
func (r *AgentRegistry) Capabilities() map[string][]string {
	capabilities := make(map[string][]string)
	for _, record := range r.list() {
		capabilities[record.id] = append([]string(nil), record.capabilities...)
	}
	return capabilities
}
