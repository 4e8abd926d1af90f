package swarm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// busKind discriminates internal bus events.
type busKind int

const (
	busRoute busKind = iota
	busBroadcast
)

// busEvent is one unit of work for the bus consumer.
type busEvent struct {
	kind busKind
	msg  *Message
}

// OrchestratorStats is a read-only snapshot of the orchestrator's
// monotonically increasing counters.
type OrchestratorStats struct {
	RegisteredAgents      uint64
	InitializedAgents     uint64
	FailedInitializations uint64
	MessagesProcessed     uint64
	RoutingErrors         uint64
	LoopIterations        uint64
}

// SuccessRate returns the percentage of processed messages that were not
// routing errors.
func (s OrchestratorStats) SuccessRate() float64 {
	if s.MessagesProcessed == 0 {
		return 100.0
	}
	successful := s.MessagesProcessed - s.RoutingErrors
	return float64(successful) / float64(s.MessagesProcessed) * 100.0
}

// InitializationRate returns the percentage of registered agents that
// initialized successfully.
func (s OrchestratorStats) InitializationRate() float64 {
	if s.RegisteredAgents == 0 {
		return 100.0
	}
	return float64(s.InitializedAgents) / float64(s.RegisteredAgents) * 100.0
}

// OrchestratorConfig holds configuration for creating an Orchestrator.
type OrchestratorConfig struct {
	Config *SwarmConfig
	Router *Router
	Logger Logger
}

// Orchestrator owns the agent registry, the shared router, and an internal
// message bus. It drives agent initialization, direct synchronous dispatch,
// health monitoring, and shutdown.
//
// Agent lifecycle and handler failures are local to the failing agent:
// initialization failures leave the agent registered and routable, handler
// panics become error responses, and shutdown always completes.
type Orchestrator struct {
	// counters are accessed atomically
	registered     uint64
	initialized    uint64
	failedInits    uint64
	processed      uint64
	routingErrors  uint64
	loopIterations uint64

	registry *AgentRegistry
	router   *Router
	cfg      *SwarmConfig
	logger   Logger

	mu      sync.Mutex
	running bool
	bus     chan busEvent
	wg      sync.WaitGroup
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	if config.Config == nil {
		config.Config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = NewDefaultLogger()
	}
	if config.Router == nil {
		config.Router = NewRouter(RouterConfig{
			ID:           config.Config.SwarmID,
			HistoryLimit: config.Config.HistoryLimit,
			Logger:       config.Logger,
		})
	}

	return &Orchestrator{
		registry: NewAgentRegistry(config.Logger),
		router:   config.Router,
		cfg:      config.Config,
		logger:   config.Logger.With(Field{Key: "swarm_id", Value: config.Config.SwarmID}),
	}
}

// Register adds an agent to the registry. Must be called before Run.
func (o *Orchestrator) Register(agent Agent) error {
	o.mu.Lock()
	running := o.running
	o.mu.Unlock()

	if running {
		return NewSwarmError(ErrOrchestratorRunning, "agents must be registered before Run")
	}

	if err := o.registry.Register(agent); err != nil {
		return err
	}

	atomic.AddUint64(&o.registered, 1)
	return nil
}

// Router returns the shared message router.
func (o *Orchestrator) Router() *Router {
	return o.router
}

// Registry returns the agent registry.
func (o *Orchestrator) Registry() *AgentRegistry {
	return o.registry
}

// Run starts the bus consumer, initializes every registered agent, connects
// each agent's router intake, starts per-agent health monitoring, and blocks
// in the main pacing loop until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return NewSwarmError(ErrOrchestratorRunning, "orchestrator is already running")
	}
	o.running = true
	o.bus = make(chan busEvent, o.cfg.BusSize)
	o.mu.Unlock()

	o.logger.Info("Starting swarm orchestrator", Field{Key: "agents", Value: o.registry.Len()})

	o.wg.Add(1)
	go o.busLoop(ctx)

	o.initializeAgents()

	for _, record := range o.registry.list() {
		intake := make(chan *Message, o.cfg.MailboxSize)
		o.router.Register(record.id, intake)

		o.wg.Add(2)
		go o.intakeLoop(ctx, record.id, intake)
		go o.healthLoop(ctx, record.id)

		if record.currentState() == StateInitialized {
			record.setState(StateRunning)
		}
	}

	o.logger.Info("Swarm orchestrator running", Field{Key: "agents", Value: o.registry.Len()})

	o.mainLoop(ctx)

	for _, id := range o.registry.IDs() {
		o.router.Unregister(id)
	}
	o.wg.Wait()

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	return nil
}

// DispatchMessage invokes the recipient agent's Handle directly and
// synchronously, then pushes the response envelope onto the internal bus for
// delivery back toward the original sender. Unknown recipients are counted
// and logged, never raised.
func (o *Orchestrator) DispatchMessage(msg *Message) error {
	if msg.Expired() {
		o.logger.Warn("Message expired, dropping",
			Field{Key: "message_id", Value: msg.ID()},
			Field{Key: "recipient", Value: msg.Recipient()},
		)
		return nil
	}

	record, ok := o.registry.get(msg.Recipient())
	if !ok {
		atomic.AddUint64(&o.routingErrors, 1)
		o.logger.Warn("No agent found for recipient",
			Field{Key: "recipient", Value: msg.Recipient()},
			Field{Key: "message_id", Value: msg.ID()},
		)
		return nil
	}

	record.handleMu.Lock()
	resp := o.safeHandle(record, msg)
	record.handleMu.Unlock()

	atomic.AddUint64(&o.processed, 1)
	o.publish(busEvent{kind: busRoute, msg: NewResponseEnvelope(resp)})
	return nil
}

// BroadcastToAgents fans a message out to every router registrant through
// the internal bus.
func (o *Orchestrator) BroadcastToAgents(msg *Message) {
	o.logger.Info("Broadcasting message to swarm", Field{Key: "message_id", Value: msg.ID()})
	o.publish(busEvent{kind: busBroadcast, msg: msg})
}

// AgentCapabilities returns the declared capability tags per agent id.
func (o *Orchestrator) AgentCapabilities() map[string][]string {
	return o.registry.Capabilities()
}

// Stats returns a read-only snapshot of the orchestrator counters.
func (o *Orchestrator) Stats() OrchestratorStats {
	return OrchestratorStats{
		RegisteredAgents:      atomic.LoadUint64(&o.registered),
		InitializedAgents:     atomic.LoadUint64(&o.initialized),
		FailedInitializations: atomic.LoadUint64(&o.failedInits),
		MessagesProcessed:     atomic.LoadUint64(&o.processed),
		RoutingErrors:         atomic.LoadUint64(&o.routingErrors),
		LoopIterations:        atomic.LoadUint64(&o.loopIterations),
	}
}

// Shutdown calls Shutdown on every agent in parallel. Per-agent failures are
// logged but never abort the sweep; Shutdown always completes.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.logger.Info("Shutting down swarm orchestrator")

	g, gctx := errgroup.WithContext(ctx)

	for _, record := range o.registry.list() {
		record := record
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if err := o.safeShutdown(record.agent); err != nil {
				o.logger.Error("Agent shutdown failed",
					Field{Key: "agent_id", Value: record.id},
					Field{Key: "error", Value: err},
				)
			} else {
				o.logger.Info("Agent shut down", Field{Key: "agent_id", Value: record.id})
			}
			record.setState(StateShutDown)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.Error("Shutdown sweep interrupted", Field{Key: "error", Value: err})
	}

	o.logger.Info("Swarm orchestrator shutdown completed")
	return nil
}

// initializeAgents runs every agent's Initialize hook, collecting successes
// and failures. A failing agent stays registered and routable.
func (o *Orchestrator) initializeAgents() {
	records := o.registry.list()
	o.logger.Info("Initializing agents", Field{Key: "count", Value: len(records)})

	for _, record := range records {
		if err := o.safeInitialize(record.agent); err != nil {
			atomic.AddUint64(&o.failedInits, 1)
			o.logger.Error("Agent initialization failed",
				Field{Key: "agent_id", Value: record.id},
				Field{Key: "error", Value: err},
			)
			continue
		}

		record.setState(StateInitialized)
		atomic.AddUint64(&o.initialized, 1)
		o.logger.Info("Agent initialized", Field{Key: "agent_id", Value: record.id})
	}
}

// busLoop drains the internal bus, routing or broadcasting each event via
// the shared router.
func (o *Orchestrator) busLoop(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-o.bus:
			switch ev.kind {
			case busRoute:
				if err := o.router.Route(ev.msg); err != nil {
					o.logger.Error("Failed to route bus message",
						Field{Key: "message_id", Value: ev.msg.ID()},
						Field{Key: "error", Value: err},
					)
				}
			case busBroadcast:
				o.router.Broadcast(ev.msg)
			}
		}
	}
}

// intakeLoop forwards messages arriving on an agent's router channel into
// direct dispatch. Per-channel FIFO order is preserved because dispatch is
// synchronous here.
func (o *Orchestrator) intakeLoop(ctx context.Context, agentID string, intake <-chan *Message) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-intake:
			if !ok {
				return
			}
			if err := o.DispatchMessage(msg); err != nil {
				o.logger.Error("Dispatch failed",
					Field{Key: "agent_id", Value: agentID},
					Field{Key: "message_id", Value: msg.ID()},
					Field{Key: "error", Value: err},
				)
			}
		}
	}
}

// healthLoop periodically polls one agent's health check and logs the
// result. Purely observational.
func (o *Orchestrator) healthLoop(ctx context.Context, agentID string) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			record, ok := o.registry.get(agentID)
			if !ok {
				return
			}
			health := o.safeHealthCheck(record.agent)
			o.logger.Info("Agent health check",
				Field{Key: "agent_id", Value: agentID},
				Field{Key: "status", Value: health.Status},
				Field{Key: "message", Value: health.Message},
			)
		}
	}
}

// mainLoop paces the orchestrator and periodically logs a consolidated
// health report across all agents.
func (o *Orchestrator) mainLoop(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			n := atomic.AddUint64(&o.loopIterations, 1)
			if o.cfg.HealthReportEvery > 0 && n%o.cfg.HealthReportEvery == 0 {
				o.logHealthReport(n)
			}
		}
	}
}

// logHealthReport logs a consolidated health status across all agents.
func (o *Orchestrator) logHealthReport(iteration uint64) {
	o.logger.Info("Swarm health report", Field{Key: "loop_iterations", Value: iteration})
	for _, record := range o.registry.list() {
		health := o.safeHealthCheck(record.agent)
		o.logger.Info("Agent status",
			Field{Key: "agent_id", Value: record.id},
			Field{Key: "state", Value: record.currentState()},
			Field{Key: "health", Value: health.Status},
			Field{Key: "message", Value: health.Message},
		)
	}
}

// publish places an event on the internal bus without blocking dispatch; a
// saturated bus drops the event with a warning.
func (o *Orchestrator) publish(ev busEvent) {
	o.mu.Lock()
	bus := o.bus
	o.mu.Unlock()

	if bus == nil {
		o.logger.Warn("Bus not running, dropping event", Field{Key: "message_id", Value: ev.msg.ID()})
		return
	}

	select {
	case bus <- ev:
	default:
		o.logger.Warn("Bus saturated, dropping event", Field{Key: "message_id", Value: ev.msg.ID()})
	}
}

// safeHandle invokes an agent's Handle, converting panics and nil responses
// into error responses so failures never cross the interface boundary.
func (o *Orchestrator) safeHandle(record *registration, msg *Message) (resp *ResponseMessage) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Agent handler panicked",
				Field{Key: "agent_id", Value: record.id},
				Field{Key: "message_id", Value: msg.ID()},
				Field{Key: "panic", Value: r},
			)
			resp = NewErrorResponse(record.id, msg, fmt.Sprintf("handler panic: %v", r))
		}
	}()

	resp = record.agent.Handle(msg)
	if resp == nil {
		resp = NewErrorResponse(record.id, msg, "handler returned no response")
	}
	return resp
}

func (o *Orchestrator) safeInitialize(agent Agent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewSwarmError(ErrAgentInitFailed, fmt.Sprintf("initialize panic: %v", r))
		}
	}()
	if initErr := agent.Initialize(); initErr != nil {
		return NewSwarmErrorWithCause(ErrAgentInitFailed, "initialize failed", initErr)
	}
	return nil
}

func (o *Orchestrator) safeShutdown(agent Agent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewSwarmError(ErrAgentShutdownFailed, fmt.Sprintf("shutdown panic: %v", r))
		}
	}()
	if shutdownErr := agent.Shutdown(); shutdownErr != nil {
		return NewSwarmErrorWithCause(ErrAgentShutdownFailed, "shutdown failed", shutdownErr)
	}
	return nil
}

func (o *Orchestrator) safeHealthCheck(agent Agent) (health Health) {
	defer func() {
		if r := recover(); r != nil {
			health = Critical(fmt.Sprintf("health check panic: %v", r))
		}
	}()
	return agent.HealthCheck()
}
