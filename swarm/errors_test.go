package swarm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwarmErrorFormatting(t *testing.T) {
	plain := NewSwarmError(ErrAgentNotFound, "agent x not found")
	assert.Equal(t, "[agent_not_found] agent x not found", plain.Error())

	cause := errors.New("disk offline")
	wrapped := NewSwarmErrorWithCause(ErrAgentInitFailed, "initialize failed", cause)
	assert.Equal(t, "[agent_init_failed] initialize failed: disk offline", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestSwarmErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", NewSwarmError(ErrDeliveryFailed, "mailbox full"))

	assert.ErrorIs(t, err, NewSwarmError(ErrDeliveryFailed, "different text"))
	assert.NotErrorIs(t, err, NewSwarmError(ErrRequestTimeout, "mailbox full"))
	assert.Equal(t, ErrDeliveryFailed, CodeOf(err))
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, ErrUnknown, CodeOf(errors.New("not a swarm error")))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(NewSwarmError(ErrRequestTimeout, "deadline passed")))
	assert.False(t, IsTimeout(NewSwarmError(ErrDeliveryFailed, "mailbox full")))
	assert.False(t, IsTimeout(errors.New("plain")))
}
