package swarm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAgent is a configurable Agent implementation for orchestrator tests.
type stubAgent struct {
	id          string
	caps        []string
	initErr     error
	shutdownErr error
	handleFn    func(msg *Message) *ResponseMessage

	mu           sync.Mutex
	handled      []*Message
	shutdownDone bool
}

func newStubAgent(id string) *stubAgent {
	return &stubAgent{id: id, caps: []string{"stub"}}
}

func (s *stubAgent) ID() string             { return s.id }
func (s *stubAgent) Capabilities() []string { return s.caps }
func (s *stubAgent) Initialize() error      { return s.initErr }
func (s *stubAgent) HealthCheck() Health    { return Healthy("stub operational") }

func (s *stubAgent) Handle(msg *Message) *ResponseMessage {
	s.mu.Lock()
	s.handled = append(s.handled, msg)
	s.mu.Unlock()

	if s.handleFn != nil {
		return s.handleFn(msg)
	}
	return NewSuccessResponse(s.id, msg, "stub-response", map[string]interface{}{"ok": true})
}

func (s *stubAgent) Shutdown() error {
	s.mu.Lock()
	s.shutdownDone = true
	s.mu.Unlock()
	return s.shutdownErr
}

func (s *stubAgent) handledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handled)
}

func (s *stubAgent) wasShutDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownDone
}

func newTestOrchestrator(t *testing.T, agents ...Agent) *Orchestrator {
	t.Helper()

	cfg := DefaultConfig()
	cfg.TickInterval = 10 * time.Millisecond
	cfg.HealthInterval = time.Hour
	cfg.HealthReportEvery = 0

	orch := NewOrchestrator(OrchestratorConfig{
		Config: cfg,
		Logger: NewNoOpLogger(),
	})
	for _, agent := range agents {
		require.NoError(t, orch.Register(agent))
	}
	return orch
}

// startOrchestrator runs the orchestrator in the background and blocks until
// every agent's intake is registered with the router.
func startOrchestrator(t *testing.T, orch *Orchestrator) (cancel func()) {
	t.Helper()

	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = orch.Run(ctx)
	}()

	expected := uint64(orch.Registry().Len())
	require.Eventually(t, func() bool {
		return orch.Router().Stats().ActiveClients >= expected
	}, time.Second, 5*time.Millisecond)

	return func() {
		cancelCtx()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("orchestrator did not stop")
		}
	}
}

func TestRegisterRejectedWhileRunning(t *testing.T) {
	orch := newTestOrchestrator(t, newStubAgent("worker"))
	stop := startOrchestrator(t, orch)
	defer stop()

	err := orch.Register(newStubAgent("latecomer"))
	require.Error(t, err)
	assert.Equal(t, ErrOrchestratorRunning, CodeOf(err))
}

func TestInitializationFailureIsIsolated(t *testing.T) {
	broken := newStubAgent("broken")
	broken.initErr = errors.New("no database")
	healthy := newStubAgent("healthy")

	orch := newTestOrchestrator(t, broken, healthy)
	stop := startOrchestrator(t, orch)
	defer stop()

	stats := orch.Stats()
	assert.Equal(t, uint64(2), stats.RegisteredAgents)
	assert.Equal(t, uint64(1), stats.InitializedAgents)
	assert.Equal(t, uint64(1), stats.FailedInitializations)
	assert.Equal(t, 50.0, stats.InitializationRate())

	states := orch.Registry().States()
	assert.Equal(t, StateRegistered, states["broken"])
	assert.Equal(t, StateRunning, states["healthy"])

	// The failed agent stays registered and routable.
	require.NoError(t, orch.DispatchMessage(NewMessage("app", "broken", "t", nil)))
	assert.Equal(t, 1, broken.handledCount())
}

func TestDispatchUnknownRecipientIsCounted(t *testing.T) {
	orch := newTestOrchestrator(t, newStubAgent("worker"))

	err := orch.DispatchMessage(NewMessage("app", "nobody", "t", nil))

	require.NoError(t, err)
	stats := orch.Stats()
	assert.Equal(t, uint64(1), stats.RoutingErrors)
	assert.Equal(t, uint64(0), stats.MessagesProcessed)
}

func TestDispatchExpiredMessageIsDropped(t *testing.T) {
	worker := newStubAgent("worker")
	orch := newTestOrchestrator(t, worker)

	expired := NewMessage("app", "worker", "t", nil).WithExpiry(time.Now().Add(-time.Second))
	require.NoError(t, orch.DispatchMessage(expired))

	assert.Equal(t, 0, worker.handledCount())
	assert.Equal(t, uint64(0), orch.Stats().MessagesProcessed)
}

func TestDispatchRoutesResponseToSender(t *testing.T) {
	worker := newStubAgent("worker")
	orch := newTestOrchestrator(t, worker)
	stop := startOrchestrator(t, orch)
	defer stop()

	replies := make(chan *Message, 1)
	orch.Router().Register("app", replies)
	defer orch.Router().Unregister("app")

	msg := NewMessage("app", "worker", "work-request", nil)
	require.NoError(t, orch.DispatchMessage(msg))

	select {
	case envelope := <-replies:
		resp, err := ResponseFromPayload(envelope)
		require.NoError(t, err)
		assert.Equal(t, msg.ID(), resp.InResponseTo)
		assert.Equal(t, StatusSuccess, resp.Status)
	case <-time.After(time.Second):
		t.Fatal("no response envelope delivered")
	}
}

func TestHandlerPanicBecomesErrorResponse(t *testing.T) {
	panicky := newStubAgent("panicky")
	panicky.handleFn = func(msg *Message) *ResponseMessage {
		panic("boom")
	}

	orch := newTestOrchestrator(t, panicky)
	stop := startOrchestrator(t, orch)
	defer stop()

	replies := make(chan *Message, 1)
	orch.Router().Register("app", replies)
	defer orch.Router().Unregister("app")

	msg := NewMessage("app", "panicky", "t", nil)
	require.NoError(t, orch.DispatchMessage(msg))

	select {
	case envelope := <-replies:
		resp, err := ResponseFromPayload(envelope)
		require.NoError(t, err)
		assert.Equal(t, StatusError, resp.Status)
		assert.Contains(t, resp.Error, "handler panic")
	case <-time.After(time.Second):
		t.Fatal("no error response delivered")
	}

	// Subsequent dispatches to the same agent still work.
	panicky.handleFn = nil
	require.NoError(t, orch.DispatchMessage(NewMessage("app", "panicky", "t", nil)))
	assert.Equal(t, 2, panicky.handledCount())
}

func TestNilHandlerResponseBecomesErrorResponse(t *testing.T) {
	silent := newStubAgent("silent")
	silent.handleFn = func(msg *Message) *ResponseMessage {
		return nil
	}

	orch := newTestOrchestrator(t, silent)
	stop := startOrchestrator(t, orch)
	defer stop()

	replies := make(chan *Message, 1)
	orch.Router().Register("app", replies)
	defer orch.Router().Unregister("app")

	require.NoError(t, orch.DispatchMessage(NewMessage("app", "silent", "t", nil)))

	select {
	case envelope := <-replies:
		resp, err := ResponseFromPayload(envelope)
		require.NoError(t, err)
		assert.Equal(t, StatusError, resp.Status)
		assert.Contains(t, resp.Error, "no response")
	case <-time.After(time.Second):
		t.Fatal("no error response delivered")
	}
}

func TestBroadcastReachesAllAgents(t *testing.T) {
	alpha := newStubAgent("alpha")
	beta := newStubAgent("beta")

	orch := newTestOrchestrator(t, alpha, beta)
	stop := startOrchestrator(t, orch)
	defer stop()

	orch.BroadcastToAgents(NewMessage("coordinator", "", "announcement", nil))

	assert.Eventually(t, func() bool {
		return alpha.handledCount() == 1 && beta.handledCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEndToEndRequestResponse(t *testing.T) {
	worker := newStubAgent("worker")
	orch := newTestOrchestrator(t, worker)
	stop := startOrchestrator(t, orch)
	defer stop()

	client := NewClient(ClientConfig{
		ID:             "app",
		Router:         orch.Router(),
		RequestTimeout: time.Second,
		Logger:         NewNoOpLogger(),
	})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	resp, err := client.SendRequest(ctx, NewMessage("app", "worker", "work-request", map[string]interface{}{"n": 7}))
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "stub-response", resp.Message.ContentType())
	assert.Equal(t, 1, worker.handledCount())
	assert.Equal(t, uint64(1), orch.Stats().MessagesProcessed)
}

func TestShutdownCompletesDespiteAgentFailure(t *testing.T) {
	failing := newStubAgent("failing")
	failing.shutdownErr = errors.New("resource leak")
	clean := newStubAgent("clean")

	orch := newTestOrchestrator(t, failing, clean)

	err := orch.Shutdown(context.Background())
	require.NoError(t, err)

	assert.True(t, failing.wasShutDown())
	assert.True(t, clean.wasShutDown())

	states := orch.Registry().States()
	assert.Equal(t, StateShutDown, states["failing"])
	assert.Equal(t, StateShutDown, states["clean"])
}

func TestRunRejectsSecondStart(t *testing.T) {
	orch := newTestOrchestrator(t, newStubAgent("worker"))
	stop := startOrchestrator(t, orch)
	defer stop()

	err := orch.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ErrOrchestratorRunning, CodeOf(err))
}

func TestStatsRates(t *testing.T) {
	assert.Equal(t, 100.0, OrchestratorStats{}.SuccessRate())
	assert.Equal(t, 100.0, OrchestratorStats{}.InitializationRate())

	stats := OrchestratorStats{
		RegisteredAgents:  4,
		InitializedAgents: 3,
		MessagesProcessed: 10,
		RoutingErrors:     2,
	}
	assert.Equal(t, 80.0, stats.SuccessRate())
	assert.Equal(t, 75.0, stats.InitializationRate())
}

func TestAgentCapabilities(t *testing.T) {
	worker := newStubAgent("worker")
	worker.caps = []string{"alpha", "beta"}

	orch := newTestOrchestrator(t, worker)

	caps := orch.AgentCapabilities()
	assert.Equal(t, []string{"alpha", "beta"}, caps["worker"])
}
