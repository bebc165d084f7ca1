// Package engine walks mission graphs node by node: it seeds a FIFO frontier
// at the start node, dispatches each operation against the device state,
// tracks progress, and selects the next edge by condition. One goroutine owns
// one mission; the store and event bus are the only shared surfaces.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/skyward-ai/skyward/internal/command"
	"github.com/skyward-ai/skyward/internal/device"
	"github.com/skyward-ai/skyward/internal/events"
	"github.com/skyward-ai/skyward/internal/graph"
	"github.com/skyward-ai/skyward/internal/mission"
	"github.com/skyward-ai/skyward/internal/types"
)

// Archive persists terminal-state snapshots. Archiving is best-effort: a
// failed save is logged and never changes the mission outcome.
type Archive interface {
	SaveSnapshot(ctx context.Context, snap *mission.Snapshot) error
}

// Engine executes mission graphs. Each StartExecution call runs one mission
// on its own goroutine with its own cancellable context; all methods are safe
// for concurrent use.
type Engine struct {
	store      mission.Store
	bus        events.Bus
	dispatcher *command.Dispatcher
	archive    Archive
	logger     *slog.Logger
	tracer     trace.Tracer
	validator  *graph.Validator
	home       device.Position

	mu      sync.Mutex
	running map[types.ID]context.CancelFunc
	wg      sync.WaitGroup
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the OpenTelemetry tracer. Default: a noop tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithDispatcher sets the command dispatcher. Default: a channel-less
// dispatcher that simulates every node.
func WithDispatcher(d *command.Dispatcher) Option {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// WithArchive sets the terminal-snapshot archive. Default: none; snapshots
// are simply not persisted.
func WithArchive(a Archive) Option {
	return func(e *Engine) {
		e.archive = a
	}
}

// WithHomePosition sets the coordinate fresh missions start from and
// return_home targets. Default: the zero position.
func WithHomePosition(home device.Position) Option {
	return func(e *Engine) {
		e.home = home
	}
}

// New creates an Engine over the given mission store and event bus.
func New(store mission.Store, bus events.Bus, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		bus:       bus,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("engine"),
		validator: graph.NewValidator(),
		running:   make(map[types.ID]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = command.NewDispatcher(command.WithDispatcherLogger(e.logger))
	}
	return e
}

// StartExecution validates the graph, registers the mission record, and
// launches execution on a new goroutine. The returned mission is the
// acknowledged record in the running state; the caller observes further
// progress through the store or the event bus.
//
// Validation failures are recorded: the mission record exists in the failed
// state with one error log, so clients can inspect why submission was
// rejected.
func (e *Engine) StartExecution(ctx context.Context, missionID types.ID, g *graph.Graph) (*mission.Mission, error) {
	if err := missionID.Validate(); err != nil {
		return nil, err
	}

	// Reserve the mission ID before validating so that two concurrent
	// submissions with the same ID cannot both reach the run goroutine.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.mu.Lock()
	if _, ok := e.running[missionID]; ok {
		e.mu.Unlock()
		cancel()
		return nil, types.NewError(types.MISSION_ALREADY_RUNNING,
			fmt.Sprintf("mission %s is already running", missionID))
	}
	e.running[missionID] = cancel
	e.mu.Unlock()

	release := func() {
		cancel()
		e.mu.Lock()
		delete(e.running, missionID)
		e.mu.Unlock()
	}

	m := mission.New(missionID, normalizeGraph(g))

	if err := e.validator.Validate(g); err != nil {
		release()
		m.Status = mission.StatusFailed
		now := time.Now()
		m.CompletedAt = &now
		m.Error = err.Error()
		m.Logs = append(m.Logs, mission.NewLogEvent(mission.LogLevelError, err.Error(), ""))
		if upErr := e.store.Upsert(m); upErr != nil {
			e.logger.Error("failed to record rejected mission", "mission_id", missionID, "error", upErr)
		}
		e.publishState(ctx, missionID, m.Status, m.Progress, "")
		e.logger.Warn("mission rejected", "mission_id", missionID, "error", err)
		return nil, err
	}

	if err := e.store.Upsert(m); err != nil {
		release()
		return nil, types.WrapError(types.MISSION_INVALID_TRANSITION, "failed to register mission", err)
	}
	if err := e.store.SetStatus(missionID, mission.StatusRunning); err != nil {
		release()
		return nil, err
	}

	e.publishState(ctx, missionID, mission.StatusRunning, 0, "")
	e.logger.Info("mission started",
		"mission_id", missionID,
		"workflow", g.Name,
		"nodes", len(g.Nodes),
	)

	e.wg.Add(1)
	go e.run(runCtx, missionID, m.Definition)

	return e.store.Get(missionID)
}

// Cancel requests cancellation of a running mission. The mission observes
// the request at its next loop boundary and transitions to cancelled.
func (e *Engine) Cancel(missionID types.ID) error {
	e.mu.Lock()
	cancel, ok := e.running[missionID]
	e.mu.Unlock()

	if !ok {
		if _, err := e.store.Get(missionID); err != nil {
			return err
		}
		return types.NewError(types.MISSION_INVALID_TRANSITION,
			fmt.Sprintf("mission %s is not running", missionID))
	}

	cancel()
	return nil
}

// GetMissionState returns a copy of the mission record.
func (e *Engine) GetMissionState(missionID types.ID) (*mission.Mission, error) {
	return e.store.Get(missionID)
}

// ListMissions returns copies of all mission records.
func (e *Engine) ListMissions() []*mission.Mission {
	return e.store.List()
}

// Wait blocks until every in-flight mission has reached a terminal state.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// run is the mission goroutine: the frontier walk over the graph.
func (e *Engine) run(ctx context.Context, missionID types.ID, g *graph.Graph) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		if cancel, ok := e.running[missionID]; ok {
			cancel()
			delete(e.running, missionID)
		}
		e.mu.Unlock()
	}()

	ctx, span := e.tracer.Start(ctx, "engine.run",
		trace.WithAttributes(
			attribute.String("mission.id", missionID.String()),
			attribute.String("workflow.name", g.Name),
		))
	defer span.End()

	state := device.NewState(e.home)
	total := len(g.Nodes)
	executed := 0
	visited := make(map[string]bool, total)
	frontier := []string{g.StartNode().ID}

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			e.finishCancelled(missionID)
			return
		}

		nodeID := frontier[0]
		frontier = frontier[1:]
		if visited[nodeID] {
			continue
		}
		visited[nodeID] = true

		node := g.GetNode(nodeID)
		if node == nil {
			// Unreachable after validation; skip rather than abort.
			continue
		}

		if err := e.store.SetCurrentNode(missionID, nodeID); err != nil {
			e.logger.Error("failed to update current node", "mission_id", missionID, "error", err)
		}
		progress := executed * 100 / total
		e.publishState(ctx, missionID, mission.StatusRunning, progress, nodeID)

		result := e.dispatcher.Dispatch(ctx, node, state)
		state = result.State

		if !result.Success {
			if ctx.Err() != nil {
				e.finishCancelled(missionID)
				return
			}
			e.appendLog(ctx, missionID, mission.LogLevelError, result.Message, nodeID)
			e.finishFailed(missionID, nodeID, result.Message)
			return
		}

		// Progress counts only successfully executed nodes; it reaches 100
		// exactly when the mission completes.
		executed++
		progress = executed * 100 / total
		if err := e.store.SetProgress(missionID, progress); err != nil {
			e.logger.Error("failed to update progress", "mission_id", missionID, "error", err)
		}

		e.logNodeOutcome(ctx, missionID, node, result)
		e.publishState(ctx, missionID, mission.StatusRunning, progress, nodeID)

		if next, ok := e.selectNext(ctx, missionID, g, node, state); ok && !visited[next] {
			frontier = append(frontier, next)
		}
	}

	if ctx.Err() != nil {
		e.finishCancelled(missionID)
		return
	}
	e.finishCompleted(ctx, missionID, state)
}

// logNodeOutcome emits the per-node mission log line. battery_check nodes
// that report a low battery log a warning; everything else logs the dispatch
// message at success level.
func (e *Engine) logNodeOutcome(ctx context.Context, missionID types.ID, node *graph.Node, result *command.Result) {
	if check := result.BatteryCheck; check != nil && check.IsLow {
		msg := fmt.Sprintf("battery at %d%%, below threshold %d%%", check.Battery, check.Threshold)
		e.appendLog(ctx, missionID, mission.LogLevelWarning, msg, node.ID)
		return
	}
	e.appendLog(ctx, missionID, mission.LogLevelSuccess, result.Message, node.ID)
}

// selectNext applies first-admissible-edge branching: outgoing edges are
// tried in declaration order, an unconditional edge always admits, a
// conditional edge admits when its condition holds against the current
// telemetry. At most one edge is followed; a node with no admissible edge is
// a dead end, which ends traversal without error.
func (e *Engine) selectNext(ctx context.Context, missionID types.ID, g *graph.Graph, node *graph.Node, state device.State) (string, bool) {
	for _, edge := range g.OutgoingEdges(node.ID) {
		if !edge.IsConditional() {
			return edge.To, true
		}

		ok, err := graph.Evaluate(edge.Condition, state)
		if err != nil {
			// Validation rejects unparseable conditions up front, so this
			// only fires on a graph mutated after submission.
			e.logger.Error("condition evaluation failed",
				"mission_id", missionID,
				"edge", edge.ID,
				"condition", edge.Condition,
				"error", err,
			)
			continue
		}
		if ok {
			e.appendLog(ctx, missionID, mission.LogLevelInfo,
				fmt.Sprintf("condition %q satisfied, taking branch to %s", edge.Condition, edge.To),
				node.ID)
			return edge.To, true
		}
		e.appendLog(ctx, missionID, mission.LogLevelInfo,
			fmt.Sprintf("condition %q not met, skipping branch to %s", edge.Condition, edge.To),
			node.ID)
	}
	return "", false
}

func (e *Engine) finishCompleted(ctx context.Context, missionID types.ID, state device.State) {
	if err := e.store.SetProgress(missionID, 100); err != nil {
		e.logger.Error("failed to finalize progress", "mission_id", missionID, "error", err)
	}
	e.appendLog(ctx, missionID, mission.LogLevelSuccess,
		fmt.Sprintf("mission complete, battery at %d%%", state.Battery), "")
	if err := e.store.SetCurrentNode(missionID, ""); err != nil {
		e.logger.Error("failed to clear current node", "mission_id", missionID, "error", err)
	}
	if err := e.store.SetStatus(missionID, mission.StatusCompleted); err != nil {
		e.logger.Error("failed to complete mission", "mission_id", missionID, "error", err)
	}
	e.publishState(ctx, missionID, mission.StatusCompleted, 100, "")
	e.logger.Info("mission completed", "mission_id", missionID, "battery", state.Battery)
	e.archiveSnapshot(missionID)
}

func (e *Engine) finishFailed(missionID types.ID, nodeID, message string) {
	if err := e.store.SetError(missionID, message); err != nil {
		e.logger.Error("failed to record mission error", "mission_id", missionID, "error", err)
	}
	if err := e.store.SetStatus(missionID, mission.StatusFailed); err != nil {
		e.logger.Error("failed to fail mission", "mission_id", missionID, "error", err)
	}
	e.publishTerminalState(missionID, mission.StatusFailed, nodeID)
	e.logger.Warn("mission failed", "mission_id", missionID, "node_id", nodeID, "reason", message)
	e.archiveSnapshot(missionID)
}

func (e *Engine) finishCancelled(missionID types.ID) {
	// The mission context is already cancelled, so publish on a fresh one.
	e.appendLog(context.Background(), missionID, mission.LogLevelWarning, "mission cancelled", "")
	if err := e.store.SetStatus(missionID, mission.StatusCancelled); err != nil {
		e.logger.Error("failed to cancel mission", "mission_id", missionID, "error", err)
	}
	e.publishTerminalState(missionID, mission.StatusCancelled, "")
	e.logger.Info("mission cancelled", "mission_id", missionID)
	e.archiveSnapshot(missionID)
}

// archiveSnapshot hands the terminal record to the archive. Best-effort.
func (e *Engine) archiveSnapshot(missionID types.ID) {
	if e.archive == nil {
		return
	}

	m, err := e.store.Get(missionID)
	if err != nil {
		e.logger.Error("failed to load mission for archiving", "mission_id", missionID, "error", err)
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.archive.SaveSnapshot(saveCtx, m.Snapshot()); err != nil {
		e.logger.Warn("failed to archive mission snapshot", "mission_id", missionID, "error", err)
	}
}

// appendLog records a mission log event and mirrors it onto the event bus.
func (e *Engine) appendLog(ctx context.Context, missionID types.ID, level mission.LogLevel, message, nodeID string) {
	event := mission.NewLogEvent(level, message, nodeID)
	if err := e.store.AppendLog(missionID, event); err != nil {
		e.logger.Error("failed to append mission log", "mission_id", missionID, "error", err)
	}
	if err := e.bus.Publish(ctx, events.Event{
		Type:      events.EventMissionLog,
		Timestamp: event.Timestamp,
		MissionID: missionID,
		Payload: events.LogPayload{
			Timestamp: event.Timestamp,
			Level:     level.String(),
			Message:   message,
			NodeID:    nodeID,
		},
	}); err != nil {
		e.logger.Warn("failed to publish log event", "mission_id", missionID, "error", err)
	}
}

// publishState broadcasts a status/progress transition.
func (e *Engine) publishState(ctx context.Context, missionID types.ID, status mission.Status, progress int, nodeID string) {
	if err := e.bus.Publish(ctx, events.Event{
		Type:      events.EventMissionState,
		Timestamp: time.Now(),
		MissionID: missionID,
		Payload: events.StatePayload{
			Status:      status.String(),
			Progress:    progress,
			CurrentNode: nodeID,
		},
	}); err != nil {
		e.logger.Warn("failed to publish state event", "mission_id", missionID, "error", err)
	}
}

// publishTerminalState reads the final progress back from the store so the
// last broadcast matches the record exactly.
func (e *Engine) publishTerminalState(missionID types.ID, status mission.Status, nodeID string) {
	progress := 0
	if m, err := e.store.Get(missionID); err == nil {
		progress = m.Progress
	}
	e.publishState(context.Background(), missionID, status, progress, nodeID)
}

// normalizeGraph guards against nil so rejected submissions still produce a
// mission record.
func normalizeGraph(g *graph.Graph) *graph.Graph {
	if g == nil {
		return &graph.Graph{}
	}
	return g
}
