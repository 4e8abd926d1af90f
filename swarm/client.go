package swarm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	ID             string
	Router         *Router
	InboxSize      int
	RequestTimeout time.Duration
	Logger         Logger

	// OnMessage receives inbox messages that are not response envelopes.
	OnMessage func(msg *Message)
}

// Client is a router participant with request/response correlation. It owns
// an inbox channel registered with the router and a pending table pairing
// outstanding request ids with single-slot response channels.
type Client struct {
	id        string
	router    *Router
	inbox     chan *Message
	timeout   time.Duration
	logger    Logger
	onMessage func(msg *Message)

	mu      sync.Mutex
	pending map[string]chan *ResponseMessage
}

// NewClient creates a client and registers its inbox with the router.
func NewClient(config ClientConfig) *Client {
	if config.InboxSize <= 0 {
		config.InboxSize = DefaultMailboxSize
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.Logger == nil {
		config.Logger = NewDefaultLogger()
	}

	client := &Client{
		id:        config.ID,
		router:    config.Router,
		inbox:     make(chan *Message, config.InboxSize),
		timeout:   config.RequestTimeout,
		logger:    config.Logger.With(Field{Key: "client_id", Value: config.ID}),
		onMessage: config.OnMessage,
		pending:   make(map[string]chan *ResponseMessage),
	}

	client.router.Register(client.id, client.inbox)
	return client
}

// ID returns the client identifier used as its routing key.
func (c *Client) ID() string {
	return c.id
}

// Inbox returns the client's inbound message channel.
func (c *Client) Inbox() <-chan *Message {
	return c.inbox
}

// Close unregisters the client from the router.
func (c *Client) Close() {
	c.router.Unregister(c.id)
}

// Send routes a message without waiting for any response.
func (c *Client) Send(msg *Message) error {
	c.logger.Debug("Sending message",
		Field{Key: "message_id", Value: msg.ID()},
		Field{Key: "recipient", Value: msg.Recipient()},
	)
	return c.router.Route(msg)
}

// SendRequest routes a message and waits for the correlated response, racing
// it against the configured deadline and the caller's context. Exactly one
// outcome occurs per request: the pending entry is removed atomically by
// whichever branch wins.
func (c *Client) SendRequest(ctx context.Context, msg *Message) (*ResponseMessage, error) {
	id := msg.ID()
	respCh := make(chan *ResponseMessage, 1)

	c.mu.Lock()
	c.pending[id] = respCh
	c.mu.Unlock()

	if err := c.Send(msg); err != nil {
		c.removePending(id)
		return nil, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		return resp, nil

	case <-timer.C:
		if !c.removePending(id) {
			// HandleResponse already claimed the entry; the response is in
			// flight and must still win.
			return <-respCh, nil
		}
		c.logger.Warn("Request timed out",
			Field{Key: "message_id", Value: id},
			Field{Key: "timeout", Value: c.timeout},
		)
		return nil, NewSwarmError(ErrRequestTimeout, fmt.Sprintf("no response for request %s within %s", id, c.timeout))

	case <-ctx.Done():
		if !c.removePending(id) {
			return <-respCh, nil
		}
		return nil, NewSwarmErrorWithCause(ErrRequestTimeout, fmt.Sprintf("request %s cancelled", id), ctx.Err())
	}
}

// HandleResponse delivers a response to the correlator waiting on its
// in_response_to id. Late or unmatched responses are dropped with a warning.
func (c *Client) HandleResponse(resp *ResponseMessage) {
	c.mu.Lock()
	respCh, ok := c.pending[resp.InResponseTo]
	if ok {
		delete(c.pending, resp.InResponseTo)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("Dropping response for unknown request",
			Field{Key: "in_response_to", Value: resp.InResponseTo},
			Field{Key: "status", Value: resp.Status},
		)
		return
	}

	// Single-slot channel and the entry was just removed under the lock, so
	// this never blocks.
	respCh <- resp
}

// Run drains the inbox until the context is cancelled, dispatching response
// envelopes to the correlator and everything else to the OnMessage callback.
func (c *Client) Run(ctx context.Context) {
	c.logger.Info("Starting client message loop")

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Client message loop stopped")
			return

		case msg, ok := <-c.inbox:
			if !ok {
				return
			}
			c.dispatch(msg)
		}
	}
}

func (c *Client) dispatch(msg *Message) {
	if msg.ContentType() == ContentTypeResponse {
		resp, err := ResponseFromPayload(msg)
		if err != nil {
			c.logger.Warn("Malformed response envelope",
				Field{Key: "message_id", Value: msg.ID()},
				Field{Key: "error", Value: err},
			)
			return
		}
		c.HandleResponse(resp)
		return
	}

	if c.onMessage != nil {
		c.onMessage(msg)
		return
	}

	c.logger.Debug("Unhandled message",
		Field{Key: "message_id", Value: msg.ID()},
		Field{Key: "content_type", Value: msg.ContentType()},
	)
}

// removePending deletes the pending entry and reports whether it was still
// present.
func (c *Client) removePending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return ok
}

// PendingRequests returns how many requests are awaiting responses.
func (c *Client) PendingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
