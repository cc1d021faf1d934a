package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stintplan/core/events"
	coremetrics "github.com/kilianp07/stintplan/core/metrics"
	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/internal/eventbus"
)

type captureSink struct {
	mu        sync.Mutex
	solves    []coremetrics.SolveEvent
	schedules [][]coremetrics.ScheduleEvent
}

func (c *captureSink) RecordSolve(ev coremetrics.SolveEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.solves = append(c.solves, ev)
	return nil
}

func (c *captureSink) RecordSchedule(evs []coremetrics.ScheduleEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedules = append(c.schedules, evs)
	return nil
}

func testSchedule() model.Schedule {
	return model.Schedule{
		{Stint: model.Stint{Index: 0, Laps: 20}, Driver: "A", Spotter: "B"},
		{Stint: model.Stint{Index: 1, Laps: 20}, Driver: "B", Spotter: "A"},
		{Stint: model.Stint{Index: 2, Laps: 18}, Driver: "A", Spotter: model.None},
	}
}

func TestStartEventCollector(t *testing.T) {
	phases := eventbus.New[events.PhaseEvent](8)
	plans := eventbus.New[events.PlanEvent](8)
	sink := &captureSink{}
	done := StartEventCollector(context.Background(), phases, plans, sink)

	phases.Publish(events.PhaseEvent{
		RunID: "r1", Phase: 0, Roles: []model.Role{model.RoleDriving, model.RoleSpotting},
		Status: "optimal", Elapsed: time.Second, Stints: 3,
	})
	plans.Publish(events.PlanEvent{RunID: "r1", Mode: "integrated", Schedule: testSchedule()})
	phases.Close()
	plans.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	require.Len(t, sink.solves, 1)
	assert.Equal(t, "driving+spotting", sink.solves[0].Roles)
	assert.Equal(t, time.Second, sink.solves[0].Duration)
	require.Len(t, sink.schedules, 1)
	assert.Len(t, sink.schedules[0], 4)
}

func TestStartEventCollectorStopsOnCancel(t *testing.T) {
	phases := eventbus.New[events.PhaseEvent](1)
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, phases, nil, coremetrics.NopSink{})
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}

	done = StartEventCollector(context.Background(), nil, nil, coremetrics.NopSink{})
	_, open := <-done
	assert.False(t, open)
}

func TestSolveEventFrom(t *testing.T) {
	at := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	ev := SolveEventFrom(events.PhaseEvent{
		RunID: "r2", Phase: 2, Roles: []model.Role{model.RoleSpotting},
		Status: "infeasible", Err: errors.New("no spotter"),
	}, at)
	assert.Equal(t, "spotting", ev.Roles)
	assert.Equal(t, "no spotter", ev.Err)
	assert.Equal(t, at, ev.Time)
}

func TestScheduleEvents(t *testing.T) {
	at := time.Now()
	got := ScheduleEvents(events.PlanEvent{RunID: "r1", Mode: "integrated", Schedule: testSchedule()}, at)
	want := []coremetrics.ScheduleEvent{
		{RunID: "r1", Mode: "integrated", Participant: "A", Role: "driving", Stints: 2, Laps: 38, Time: at},
		{RunID: "r1", Mode: "integrated", Participant: "B", Role: "driving", Stints: 1, Laps: 20, Time: at},
		{RunID: "r1", Mode: "integrated", Participant: "A", Role: "spotting", Stints: 1, Laps: 20, Time: at},
		{RunID: "r1", Mode: "integrated", Participant: "B", Role: "spotting", Stints: 1, Laps: 20, Time: at},
	}
	assert.Equal(t, want, got)
}
