package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsInvalidAgents(t *testing.T) {
	registry := NewAgentRegistry(NewNoOpLogger())

	err := registry.Register(nil)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidAgent, CodeOf(err))

	err = registry.Register(newStubAgent(""))
	require.Error(t, err)
	assert.Equal(t, ErrInvalidAgent, CodeOf(err))

	assert.Equal(t, 0, registry.Len())
}

func TestRegistryOverwritesDuplicateIDs(t *testing.T) {
	registry := NewAgentRegistry(NewNoOpLogger())

	first := newStubAgent("worker")
	second := newStubAgent("worker")

	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))

	assert.Equal(t, 1, registry.Len())

	record, ok := registry.get("worker")
	require.True(t, ok)
	assert.Same(t, second, record.agent)
}

func TestRegistryStates(t *testing.T) {
	registry := NewAgentRegistry(NewNoOpLogger())
	require.NoError(t, registry.Register(newStubAgent("worker")))

	state, err := registry.State("worker")
	require.NoError(t, err)
	assert.Equal(t, StateRegistered, state)

	record, ok := registry.get("worker")
	require.True(t, ok)
	record.setState(StateRunning)

	states := registry.States()
	assert.Equal(t, StateRunning, states["worker"])

	_, err = registry.State("missing")
	require.Error(t, err)
	assert.Equal(t, ErrAgentNotFound, CodeOf(err))
}

func TestRegistryCapabilitiesSnapshot(t *testing.T) {
	registry := NewAgentRegistry(NewNoOpLogger())

	agent := newStubAgent("worker")
	agent.caps = []string{"alpha"}
	require.NoError(t, registry.Register(agent))

	caps := registry.Capabilities()
	require.Equal(t, []string{"alpha"}, caps["worker"])

	// Mutating the snapshot does not affect the registry.
	caps["worker"][0] = "mutated"
	assert.Equal(t, []string{"alpha"}, registry.Capabilities()["worker"])
}

func TestRegistryIDs(t *testing.T) {
	registry := NewAgentRegistry(NewNoOpLogger())
	require.NoError(t, registry.Register(newStubAgent("a")))
	require.NoError(t, registry.Register(newStubAgent("b")))

	assert.ElementsMatch(t, []string{"a", "b"}, registry.IDs())
}
