package swarm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority indicates how urgently a message should be treated by consumers.
type Priority int

const (
	// PriorityLow represents background-priority traffic
	PriorityLow Priority = iota

	// PriorityNormal is the default priority
	PriorityNormal

	// PriorityHigh represents elevated-priority traffic
	PriorityHigh

	// PriorityCritical represents traffic that must be handled first
	PriorityCritical
)

// String returns a string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// ParsePriority converts a wire-format priority string back to a Priority.
func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "critical":
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

// MarshalJSON implements json.Marshaler.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = ParsePriority(s)
	return nil
}

// ResponseStatus describes the outcome carried by a ResponseMessage.
type ResponseStatus int

const (
	// StatusSuccess indicates the request was handled successfully
	StatusSuccess ResponseStatus = iota

	// StatusError indicates the handler failed
	StatusError

	// StatusPending indicates the handler accepted the request but has not
	// completed it
	StatusPending

	// StatusTimeout indicates the requester gave up waiting
	StatusTimeout
)

// String returns a string representation of the response status.
func (s ResponseStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusPending:
		return "pending"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s ResponseStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ResponseStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "error":
		*s = StatusError
	case "pending":
		*s = StatusPending
	case "timeout":
		*s = StatusTimeout
	default:
		*s = StatusSuccess
	}
	return nil
}

// Common content types used by the core itself.
const (
	// ContentTypeResponse marks an envelope whose payload is a
	// ResponseMessage destined for a correlator
	ContentTypeResponse = "response"

	// ContentTypeError marks a reply produced for a failed request
	ContentTypeError = "error"
)

// Message is the addressed, timestamped envelope exchanged between agents.
// Its id, sender, and payload never change after construction; priority,
// expiry, and metadata are set through builder calls before the message is
// handed to a router.
type Message struct {
	id          string
	timestamp   time.Time
	sender      string
	recipient   string
	contentType string
	payload     interface{}
	metadata    map[string]string
	priority    Priority
	expiresAt   time.Time
}

// NewMessage creates a message with a fresh unique id, the current
// timestamp, Normal priority, and no expiry.
func NewMessage(sender, recipient, contentType string, payload interface{}) *Message {
	return &Message{
		id:          uuid.New().String(),
		timestamp:   time.Now().UTC(),
		sender:      sender,
		recipient:   recipient,
		contentType: contentType,
		payload:     payload,
		metadata:    make(map[string]string),
		priority:    PriorityNormal,
	}
}

// ID returns the unique identifier for this message.
func (m *Message) ID() string {
	return m.id
}

// Timestamp returns when the message was created.
func (m *Message) Timestamp() time.Time {
	return m.timestamp
}

// Sender returns the id of the originator.
func (m *Message) Sender() string {
	return m.sender
}

// Recipient returns the id of the intended recipient.
func (m *Message) Recipient() string {
	return m.recipient
}

// ContentType returns the content-type tag used for routing intent and
// payload interpretation.
func (m *Message) ContentType() string {
	return m.contentType
}

// Payload returns the opaque message payload.
func (m *Message) Payload() interface{} {
	return m.payload
}

// Priority returns the message priority.
func (m *Message) Priority() Priority {
	return m.priority
}

// Metadata returns a copy of the message metadata.
func (m *Message) Metadata() map[string]string {
	meta := make(map[string]string, len(m.metadata))
	for k, v := range m.metadata {
		meta[k] = v
	}
	return meta
}

// MetadataValue returns a single metadata value.
func (m *Message) MetadataValue(key string) (string, bool) {
	v, ok := m.metadata[key]
	return v, ok
}

// ExpiresAt returns the expiry instant, if one is set.
func (m *Message) ExpiresAt() (time.Time, bool) {
	if m.expiresAt.IsZero() {
		return time.Time{}, false
	}
	return m.expiresAt, true
}

// WithPriority returns a copy of the message with the given priority.
func (m *Message) WithPriority(p Priority) *Message {
	clone := m.clone(m.recipient)
	clone.priority = p
	return clone
}

// WithExpiry returns a copy of the message that expires at the given instant.
func (m *Message) WithExpiry(expiresAt time.Time) *Message {
	clone := m.clone(m.recipient)
	clone.expiresAt = expiresAt
	return clone
}

// WithMetadata returns a copy of the message with an additional metadata
// entry.
func (m *Message) WithMetadata(key, value string) *Message {
	clone := m.clone(m.recipient)
	clone.metadata[key] = value
	return clone
}

// Expired returns true iff an expiry is set and the current time exceeds it.
func (m *Message) Expired() bool {
	if m.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(m.expiresAt)
}

// String returns a string representation of the message.
func (m *Message) String() string {
	return m.contentType + ":" + m.id
}

// clone copies the message, rewriting the recipient. The id, sender,
// content type, and payload are preserved so broadcast fan-out keeps the
// original identity.
func (m *Message) clone(recipient string) *Message {
	meta := make(map[string]string, len(m.metadata))
	for k, v := range m.metadata {
		meta[k] = v
	}
	return &Message{
		id:          m.id,
		timestamp:   m.timestamp,
		sender:      m.sender,
		recipient:   recipient,
		contentType: m.contentType,
		payload:     m.payload,
		metadata:    meta,
		priority:    m.priority,
		expiresAt:   m.expiresAt,
	}
}

// messageWire is the field-for-field serialized form of a Message.
type messageWire struct {
	MessageID   string            `json:"message_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Sender      string            `json:"sender"`
	Recipient   string            `json:"recipient"`
	ContentType string            `json:"content_type"`
	Content     interface{}       `json:"content"`
	Metadata    map[string]string `json:"metadata"`
	Priority    Priority          `json:"priority"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *Message) MarshalJSON() ([]byte, error) {
	wire := messageWire{
		MessageID:   m.id,
		Timestamp:   m.timestamp,
		Sender:      m.sender,
		Recipient:   m.recipient,
		ContentType: m.contentType,
		Content:     m.payload,
		Metadata:    m.metadata,
		Priority:    m.priority,
	}
	if !m.expiresAt.IsZero() {
		expires := m.expiresAt
		wire.ExpiresAt = &expires
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	m.id = wire.MessageID
	m.timestamp = wire.Timestamp
	m.sender = wire.Sender
	m.recipient = wire.Recipient
	m.contentType = wire.ContentType
	m.payload = wire.Content
	m.metadata = wire.Metadata
	if m.metadata == nil {
		m.metadata = make(map[string]string)
	}
	m.priority = wire.Priority
	if wire.ExpiresAt != nil {
		m.expiresAt = *wire.ExpiresAt
	}

	return nil
}

// ResponseMessage correlates to exactly one prior Message through
// InResponseTo and carries the reply envelope back toward the original
// sender.
type ResponseMessage struct {
	InResponseTo string         `json:"in_response_to"`
	Status       ResponseStatus `json:"status"`
	Message      *Message       `json:"message"`
	Error        string         `json:"error,omitempty"`
}

// NewSuccessResponse builds a success response to the original message. The
// reply is addressed back to the original sender and inherits its priority.
func NewSuccessResponse(agentID string, original *Message, contentType string, payload interface{}) *ResponseMessage {
	reply := NewMessage(agentID, original.Sender(), contentType, payload).
		WithPriority(original.Priority()).
		WithMetadata("processed_at", time.Now().UTC().Format(time.RFC3339))

	return &ResponseMessage{
		InResponseTo: original.ID(),
		Status:       StatusSuccess,
		Message:      reply,
	}
}

// NewErrorResponse builds an error response to the original message.
func NewErrorResponse(agentID string, original *Message, errText string) *ResponseMessage {
	reply := NewMessage(agentID, original.Sender(), ContentTypeError, map[string]interface{}{
		"error": errText,
	}).WithPriority(original.Priority())

	return &ResponseMessage{
		InResponseTo: original.ID(),
		Status:       StatusError,
		Message:      reply,
		Error:        errText,
	}
}

// NewResponseEnvelope wraps a response in a routable Message addressed to
// the original requester so a correlator on the receiving side can match it.
func NewResponseEnvelope(resp *ResponseMessage) *Message {
	return NewMessage(resp.Message.Sender(), resp.Message.Recipient(), ContentTypeResponse, resp)
}

// ResponseFromPayload extracts a ResponseMessage from a response envelope.
func ResponseFromPayload(msg *Message) (*ResponseMessage, error) {
	if msg.ContentType() != ContentTypeResponse {
		return nil, NewSwarmError(ErrInvalidMessage, fmt.Sprintf("message %s is not a response envelope", msg.ID()))
	}
	resp, ok := msg.Payload().(*ResponseMessage)
	if !ok {
		return nil, NewSwarmError(ErrInvalidMessage, fmt.Sprintf("response envelope %s carries no ResponseMessage payload", msg.ID()))
	}
	return resp, nil
}
