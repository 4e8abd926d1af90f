package swarm

import (
	"fmt"
	"sync"
)

// AgentFactory creates new agent instances from configuration.
type AgentFactory interface {
	// Create creates a new agent instance with the given configuration
	Create(config Config) (Agent, error)

	// Type returns the string tag this factory is registered under
	Type() string
}

// SimpleAgentFactory provides a function-backed implementation of
// AgentFactory.
type SimpleAgentFactory struct {
	factoryType string
	createFunc  func(config Config) (Agent, error)
}

// NewSimpleAgentFactory creates a new simple agent factory.
func NewSimpleAgentFactory(factoryType string, createFunc func(config Config) (Agent, error)) AgentFactory {
	return &SimpleAgentFactory{
		factoryType: factoryType,
		createFunc:  createFunc,
	}
}

// Create creates a new agent instance with the given configuration.
func (f *SimpleAgentFactory) Create(config Config) (Agent, error) {
	return f.createFunc(config)
}

// Type returns the type of agent this factory creates.
func (f *SimpleAgentFactory) Type() string {
	return f.factoryType
}

// FactoryRegistry maps string type tags to agent factories so agents can be
// built dynamically from a SwarmConfig agent list.
type FactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]AgentFactory
	logger    Logger
}

// NewFactoryRegistry creates a new factory registry.
func NewFactoryRegistry(logger Logger) *FactoryRegistry {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	return &FactoryRegistry{
		factories: make(map[string]AgentFactory),
		logger:    logger,
	}
}

// Register adds a factory under its type tag.
func (r *FactoryRegistry) Register(factory AgentFactory) {
	r.mu.Lock()
	r.factories[factory.Type()] = factory
	r.mu.Unlock()

	r.logger.Info("Agent factory registered", Field{Key: "type", Value: factory.Type()})
}

// Unregister removes a factory.
func (r *FactoryRegistry) Unregister(factoryType string) {
	r.mu.Lock()
	delete(r.factories, factoryType)
	r.mu.Unlock()

	r.logger.Info("Agent factory unregistered", Field{Key: "type", Value: factoryType})
}

// Get retrieves a factory by type tag.
func (r *FactoryRegistry) Get(factoryType string) (AgentFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[factoryType]
	return factory, ok
}

// Types returns all registered factory type tags.
func (r *FactoryRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}

// BuildAgents instantiates every agent declared in the configuration's agent
// list through the matching factories.
func (r *FactoryRegistry) BuildAgents(cfg *SwarmConfig) ([]Agent, error) {
	agents := make([]Agent, 0, len(cfg.Agents))

	for _, spec := range cfg.Agents {
		factory, ok := r.Get(spec.Type)
		if !ok {
			return nil, NewSwarmError(ErrInvalidConfiguration, fmt.Sprintf("no factory registered for agent type %q", spec.Type))
		}

		options := NewMapConfig()
		for key, value := range spec.Options {
			options.Set(key, value)
		}
		if spec.ID != "" {
			options.Set("id", spec.ID)
		}

		agent, err := factory.Create(options)
		if err != nil {
			return nil, NewSwarmErrorWithCause(ErrInvalidAgent, fmt.Sprintf("creating agent of type %q", spec.Type), err)
		}
		agents = append(agents, agent)
	}

	return agents, nil
}
