package swarm

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// RouterStats is a read-only snapshot of router counters.
type RouterStats struct {
	MessagesSent     uint64
	MessagesReceived uint64
	ActiveClients    uint64
	Errors           uint64
}

// RouterConfig holds configuration for creating a Router.
type RouterConfig struct {
	ID           string
	HistoryLimit int
	Logger       Logger
}

// Router is the shared delivery fabric: a concurrent registry of inbound
// channels keyed by identifier, with point-to-point delivery, broadcast
// fan-out, a bounded history log, and running stats.
//
// Routing is fire-and-forget toward the submitter: an unknown recipient or
// an expired message is absorbed into logs and counters, never surfaced as
// an error. Only a delivery failure on a present channel propagates.
type Router struct {
	// counters are accessed atomically
	messagesSent     uint64
	messagesReceived uint64
	activeClients    uint64
	errors           uint64

	id     string
	logger Logger

	mu           sync.RWMutex
	clients      map[string]chan *Message
	history      []*Message
	historyLimit int
}

// NewRouter creates a new router. A HistoryLimit of zero keeps the history
// unbounded.
func NewRouter(config RouterConfig) *Router {
	if config.ID == "" {
		config.ID = "router"
	}
	if config.Logger == nil {
		config.Logger = NewDefaultLogger()
	}

	return &Router{
		id:           config.ID,
		logger:       config.Logger.With(Field{Key: "router_id", Value: config.ID}),
		clients:      make(map[string]chan *Message),
		historyLimit: config.HistoryLimit,
	}
}

// ID returns the router's identifier.
func (r *Router) ID() string {
	return r.id
}

// Register adds a recipient's inbound channel under the given identifier.
// Registering an identifier twice replaces the previous channel.
func (r *Router) Register(id string, ch chan *Message) {
	r.mu.Lock()
	r.clients[id] = ch
	atomic.StoreUint64(&r.activeClients, uint64(len(r.clients)))
	r.mu.Unlock()

	r.logger.Info("Client registered", Field{Key: "client_id", Value: id})
}

// Unregister removes a recipient. Safe to call concurrently with routing.
func (r *Router) Unregister(id string) {
	r.mu.Lock()
	delete(r.clients, id)
	atomic.StoreUint64(&r.activeClients, uint64(len(r.clients)))
	r.mu.Unlock()

	r.logger.Info("Client unregistered", Field{Key: "client_id", Value: id})
}

// Route delivers a message to its recipient's channel.
//
// Expired messages are dropped with a warning and do not count as errors.
// An unknown recipient is logged and counted but still returns nil; only a
// failure to place the message on a present channel returns an error.
func (r *Router) Route(msg *Message) error {
	if msg.Expired() {
		r.logger.Warn("Message expired, dropping",
			Field{Key: "message_id", Value: msg.ID()},
			Field{Key: "recipient", Value: msg.Recipient()},
		)
		return nil
	}

	atomic.AddUint64(&r.messagesReceived, 1)

	r.mu.Lock()
	r.history = append(r.history, msg)
	if r.historyLimit > 0 && len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
	ch, ok := r.clients[msg.Recipient()]
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("Recipient not registered",
			Field{Key: "recipient", Value: msg.Recipient()},
			Field{Key: "message_id", Value: msg.ID()},
		)
		atomic.AddUint64(&r.errors, 1)
		return nil
	}

	select {
	case ch <- msg:
		atomic.AddUint64(&r.messagesSent, 1)
		r.logger.Debug("Message routed",
			Field{Key: "message_id", Value: msg.ID()},
			Field{Key: "recipient", Value: msg.Recipient()},
		)
		return nil
	default:
		atomic.AddUint64(&r.errors, 1)
		return NewSwarmError(ErrDeliveryFailed, fmt.Sprintf("mailbox full for recipient %s", msg.Recipient()))
	}
}

// Broadcast clones the message once per currently-registered identifier,
// rewriting the recipient per clone. Individual delivery failures are logged
// but do not abort the remaining fan-out. Registrations changing mid-flight
// may be skipped or receive a stale copy.
func (r *Router) Broadcast(msg *Message) {
	r.mu.RLock()
	targets := make(map[string]chan *Message, len(r.clients))
	for id, ch := range r.clients {
		targets[id] = ch
	}
	r.mu.RUnlock()

	r.logger.Info("Broadcasting message",
		Field{Key: "message_id", Value: msg.ID()},
		Field{Key: "targets", Value: len(targets)},
	)

	for id, ch := range targets {
		clone := msg.clone(id)
		select {
		case ch <- clone:
			atomic.AddUint64(&r.messagesSent, 1)
		default:
			r.logger.Warn("Broadcast delivery failed",
				Field{Key: "client_id", Value: id},
				Field{Key: "message_id", Value: msg.ID()},
			)
		}
	}
}

// Stats returns a read-only snapshot of the router counters.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		MessagesSent:     atomic.LoadUint64(&r.messagesSent),
		MessagesReceived: atomic.LoadUint64(&r.messagesReceived),
		ActiveClients:    atomic.LoadUint64(&r.activeClients),
		Errors:           atomic.LoadUint64(&r.errors),
	}
}

// History returns delivered and attempted messages. With a positive limit it
// returns the most recent entries, most-recent first; otherwise the full log
// in arrival order.
func (r *Router) History(limit int) []*Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.history) {
		if limit <= 0 {
			out := make([]*Message, len(r.history))
			copy(out, r.history)
			return out
		}
		limit = len(r.history)
	}

	out := make([]*Message, 0, limit)
	for i := len(r.history) - 1; i >= len(r.history)-limit; i-- {
		out = append(out, r.history[i])
	}
	return out
}
