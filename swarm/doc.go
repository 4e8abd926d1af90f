/*
Package swarm provides an in-process agent-messaging core: a typed message
envelope, a channel-based router, a request/response correlator, and an
orchestrator that owns a registry of pluggable agents.

# Overview

The package is designed around a small set of abstractions:

  - Message / ResponseMessage: the addressed, timestamped envelopes crossing
    the boundary between the core and its agents
  - Agent: the capability interface every pluggable handler implements
  - Router: the shared delivery and broadcast fabric with channel fan-out
  - Client: the correlator pairing an outbound request with its eventual
    (or timed-out) reply
  - Orchestrator: agent lifecycle, direct dispatch, and health monitoring

# Messages

Messages are immutable envelopes. Construction generates a unique id and
timestamp; priority, expiry, and metadata are layered on through builder
calls before the message enters the system:

	msg := swarm.NewMessage("mobile-app", "valuation-agent",
		"property-valuation-request", payload).
		WithPriority(swarm.PriorityHigh).
		WithExpiry(time.Now().Add(time.Minute))

Expired messages are never delivered; the router drops them with a warning.

# Delivery semantics

Routing favors availability over strict delivery guarantees. An unknown
recipient is logged and counted, not raised; only a failure to place a
message on a present channel surfaces as an error to the caller. Per-channel
delivery is FIFO, but direct orchestrator dispatch and the router/bus path
are independently ordered lanes.

# Agents

Business agents implement the Agent interface, typically by embedding
BaseAgent and providing Handle. The orchestrator serializes Handle calls per
agent, recovers panics into error responses, and treats lifecycle failures
as local to the failing agent: a swarm keeps running with degraded members.
*/
package swarm
