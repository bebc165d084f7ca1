package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-ai/skyward/internal/types"
)

func publishLog(t *testing.T, bus *DefaultBus, missionID types.ID, message string) {
	t.Helper()
	require.NoError(t, bus.Publish(context.Background(), Event{
		Type:      EventMissionLog,
		MissionID: missionID,
		Payload:   LogPayload{Level: "info", Message: message},
	}))
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{}, 0)
	defer cleanup()

	id := types.NewID()
	publishLog(t, bus, id, "hello")

	ev := receive(t, ch)
	assert.Equal(t, EventMissionLog, ev.Type)
	assert.Equal(t, id, ev.MissionID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestBus_FilterByMission(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	mine := types.NewID()
	other := types.NewID()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{MissionID: mine}, 0)
	defer cleanup()

	publishLog(t, bus, other, "not for us")
	publishLog(t, bus, mine, "for us")

	ev := receive(t, ch)
	assert.Equal(t, mine, ev.MissionID)
	assert.Empty(t, ch)
}

func TestBus_FilterByType(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{Types: []EventType{EventMissionState}}, 0)
	defer cleanup()

	id := types.NewID()
	publishLog(t, bus, id, "log line")
	require.NoError(t, bus.Publish(context.Background(), Event{
		Type:      EventMissionState,
		MissionID: id,
		Payload:   StatePayload{Status: "running", Progress: 20},
	}))

	ev := receive(t, ch)
	assert.Equal(t, EventMissionState, ev.Type)
	assert.Empty(t, ch)
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{}, 1)
	defer cleanup()

	id := types.NewID()
	publishLog(t, bus, id, "first")
	publishLog(t, bus, id, "dropped")

	ev := receive(t, ch)
	assert.Equal(t, "first", ev.Payload.(LogPayload).Message)
	assert.Empty(t, ch)
}

func TestBus_CleanupUnsubscribes(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	_, cleanup := bus.Subscribe(context.Background(), Filter{}, 0)
	assert.Equal(t, 1, bus.SubscriberCount())

	cleanup()
	assert.Equal(t, 0, bus.SubscriberCount())

	// Idempotent.
	cleanup()
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestBus_CloseClosesSubscriberChannels(t *testing.T) {
	bus := NewBus()

	ch, _ := bus.Subscribe(context.Background(), Filter{}, 0)
	require.NoError(t, bus.Close())

	_, open := <-ch
	assert.False(t, open)

	err := bus.Publish(context.Background(), Event{Type: EventMissionLog})
	require.Error(t, err)

	// Closing twice is fine.
	require.NoError(t, bus.Close())
}

func TestFilter_Matches(t *testing.T) {
	id := types.NewID()
	other := types.NewID()
	ev := Event{Type: EventMissionLog, MissionID: id}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty filter matches all", filter: Filter{}, want: true},
		{name: "matching mission", filter: Filter{MissionID: id}, want: true},
		{name: "other mission", filter: Filter{MissionID: other}, want: false},
		{name: "matching type", filter: Filter{Types: []EventType{EventMissionLog}}, want: true},
		{name: "other type", filter: Filter{Types: []EventType{EventMissionState}}, want: false},
		{
			name:   "type and mission must both match",
			filter: Filter{Types: []EventType{EventMissionLog}, MissionID: other},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(ev))
		})
	}
}
