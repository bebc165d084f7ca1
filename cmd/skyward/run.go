package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skyward-ai/skyward/internal/archive"
	"github.com/skyward-ai/skyward/internal/command"
	"github.com/skyward-ai/skyward/internal/device"
	"github.com/skyward-ai/skyward/internal/engine"
	"github.com/skyward-ai/skyward/internal/events"
	"github.com/skyward-ai/skyward/internal/graph"
	"github.com/skyward-ai/skyward/internal/mission"
	"github.com/skyward-ai/skyward/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run <graph-file>",
	Short: "Execute a mission graph",
	Long: `Run loads a mission graph (JSON or YAML), executes it, and streams
mission logs and state transitions to stdout until the mission reaches a
terminal state. Ctrl-C cancels the running mission.`,
	Args: cobra.ExactArgs(1),
	RunE: runMission,
}

func runMission(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	g, err := graph.NewLoader().LoadFile(args[0])
	if err != nil {
		return err
	}

	store := mission.NewMemoryStore()
	bus := events.NewBus(
		events.WithBufferSize(cfg.Engine.EventBuffer),
		events.WithBusLogger(logger),
	)
	defer bus.Close()

	dispatcherOpts := []command.DispatcherOption{
		command.WithTimeout(cfg.Channel.Timeout),
		command.WithSimulatorDelay(cfg.Engine.SimulatorDelay),
		command.WithDispatcherLogger(logger),
	}
	if cfg.Channel.Endpoint != "" {
		channel, err := command.NewGRPCChannel(cfg.Channel.Endpoint)
		if err != nil {
			return err
		}
		defer channel.Close()

		if !channel.Healthy(ctx) {
			logger.Warn("command channel is not healthy, nodes will be simulated",
				"endpoint", cfg.Channel.Endpoint)
		}
		dispatcherOpts = append(dispatcherOpts, command.WithChannel(channel))
	}

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithDispatcher(command.NewDispatcher(dispatcherOpts...)),
		engine.WithHomePosition(device.Position{
			Lat: cfg.Engine.HomeLat,
			Lng: cfg.Engine.HomeLng,
		}),
	}
	if cfg.Archive.Path != "" {
		arc, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer arc.Close()
		engineOpts = append(engineOpts, engine.WithArchive(arc))
	}

	eng := engine.New(store, bus, engineOpts...)
	missionID := types.NewID()

	// Subscribe before starting so no event is missed.
	eventCh, cleanup := bus.Subscribe(context.Background(), events.Filter{MissionID: missionID}, 0)
	defer cleanup()

	m, err := eng.StartExecution(ctx, missionID, g)
	if err != nil {
		return err
	}
	fmt.Printf("mission %s started: %s (%d nodes)\n", m.ID, m.Name, len(g.Nodes))

	streamEvents(ctx, eng, missionID, eventCh)
	eng.Wait()

	final, err := eng.GetMissionState(missionID)
	if err != nil {
		return err
	}
	fmt.Printf("mission %s %s (progress %d%%)\n", final.ID, final.Status, final.Progress)

	switch final.Status {
	case mission.StatusFailed:
		return fmt.Errorf("mission failed: %s", final.Error)
	case mission.StatusCancelled:
		return fmt.Errorf("mission cancelled")
	default:
		return nil
	}
}

// streamEvents prints mission events until a terminal state is observed.
// Context cancellation (Ctrl-C) requests mission cancellation and keeps
// draining so the terminal transition is still reported.
func streamEvents(ctx context.Context, eng *engine.Engine, missionID types.ID, ch <-chan events.Event) {
	cancelRequested := false
	for {
		select {
		case <-ctx.Done():
			if !cancelRequested {
				cancelRequested = true
				if err := eng.Cancel(missionID); err != nil {
					return
				}
			}
			ctx = context.Background()

		case ev, ok := <-ch:
			if !ok {
				return
			}
			if terminal := printEvent(ev); terminal {
				return
			}
		}
	}
}

// printEvent renders one event and reports whether it announced a terminal
// state.
func printEvent(ev events.Event) bool {
	switch p := ev.Payload.(type) {
	case events.LogPayload:
		ts := p.Timestamp.Format(time.TimeOnly)
		if p.NodeID != "" {
			fmt.Printf("%s [%s] %s (%s)\n", ts, p.Level, p.Message, p.NodeID)
		} else {
			fmt.Printf("%s [%s] %s\n", ts, p.Level, p.Message)
		}
		return false

	case events.StatePayload:
		status := mission.Status(p.Status)
		if status.IsTerminal() {
			return true
		}
		return false

	default:
		return false
	}
}
