package swarm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryRegistryRegisterAndGet(t *testing.T) {
	registry := NewFactoryRegistry(NewNoOpLogger())

	registry.Register(NewSimpleAgentFactory("stub", func(config Config) (Agent, error) {
		return newStubAgent(config.GetString("id")), nil
	}))

	factory, ok := registry.Get("stub")
	require.True(t, ok)
	assert.Equal(t, "stub", factory.Type())
	assert.ElementsMatch(t, []string{"stub"}, registry.Types())

	registry.Unregister("stub")
	_, ok = registry.Get("stub")
	assert.False(t, ok)
}

func TestBuildAgentsFromConfig(t *testing.T) {
	registry := NewFactoryRegistry(NewNoOpLogger())
	registry.Register(NewSimpleAgentFactory("stub", func(config Config) (Agent, error) {
		id := config.GetString("id")
		if id == "" {
			id = "stub-default"
		}
		agent := newStubAgent(id)
		if region := config.GetString("region"); region != "" {
			agent.caps = append(agent.caps, region)
		}
		return agent, nil
	}))

	cfg := DefaultConfig()
	cfg.Agents = []AgentSpec{
		{Type: "stub"},
		{Type: "stub", ID: "stub-east", Options: map[string]string{"region": "east"}},
	}

	agents, err := registry.BuildAgents(cfg)
	require.NoError(t, err)
	require.Len(t, agents, 2)

	assert.Equal(t, "stub-default", agents[0].ID())
	assert.Equal(t, "stub-east", agents[1].ID())
	assert.Contains(t, agents[1].Capabilities(), "east")
}

func TestBuildAgentsUnknownType(t *testing.T) {
	registry := NewFactoryRegistry(NewNoOpLogger())

	cfg := DefaultConfig()
	cfg.Agents = []AgentSpec{{Type: "missing"}}

	_, err := registry.BuildAgents(cfg)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidConfiguration, CodeOf(err))
}

func TestBuildAgentsFactoryFailure(t *testing.T) {
	registry := NewFactoryRegistry(NewNoOpLogger())
	registry.Register(NewSimpleAgentFactory("broken", func(config Config) (Agent, error) {
		return nil, errors.New("construction failed")
	}))

	cfg := DefaultConfig()
	cfg.Agents = []AgentSpec{{Type: "broken"}}

	_, err := registry.BuildAgents(cfg)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidAgent, CodeOf(err))
}
