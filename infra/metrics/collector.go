package metrics

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/stintplan/core/events"
	coremetrics "github.com/kilianp07/stintplan/core/metrics"
	"github.com/kilianp07/stintplan/core/model"
	"github.com/kilianp07/stintplan/internal/eventbus"
)

// StartEventCollector subscribes to the planning buses and records metrics
// for their events. Either bus may be nil. The returned channel is closed
// once the collector has stopped, which happens when ctx is cancelled or
// both buses are closed.
func StartEventCollector(ctx context.Context, phases eventbus.Subscriber[events.PhaseEvent],
	plans eventbus.Subscriber[events.PlanEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if sink == nil || (phases == nil && plans == nil) {
		close(done)
		return done
	}
	var phaseCh <-chan events.PhaseEvent
	var planCh <-chan events.PlanEvent
	if phases != nil {
		phaseCh = phases.Subscribe()
	}
	if plans != nil {
		planCh = plans.Subscribe()
	}
	go func() {
		defer close(done)
		defer func() {
			if phases != nil {
				phases.Unsubscribe(phaseCh)
			}
			if plans != nil {
				plans.Unsubscribe(planCh)
			}
		}()
		for phaseCh != nil || planCh != nil {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-phaseCh:
				if !ok {
					phaseCh = nil
					continue
				}
				_ = sink.RecordSolve(SolveEventFrom(ev, time.Now()))
			case ev, ok := <-planCh:
				if !ok {
					planCh = nil
					continue
				}
				if r, ok := sink.(coremetrics.ScheduleRecorder); ok {
					_ = r.RecordSchedule(ScheduleEvents(ev, time.Now()))
				}
			}
		}
	}()
	return done
}

// SolveEventFrom converts a bus event into a metrics record.
func SolveEventFrom(ev events.PhaseEvent, at time.Time) coremetrics.SolveEvent {
	roles := make([]string, len(ev.Roles))
	for i, r := range ev.Roles {
		roles[i] = r.String()
	}
	out := coremetrics.SolveEvent{
		RunID:       ev.RunID,
		Phase:       ev.Phase,
		Roles:       strings.Join(roles, "+"),
		Status:      ev.Status,
		Duration:    ev.Elapsed,
		Stints:      ev.Stints,
		Variables:   ev.Variables,
		Constraints: ev.Constraints,
		Time:        at,
	}
	if ev.Err != nil {
		out.Err = ev.Err.Error()
	}
	return out
}

// ScheduleEvents returns the stint and lap load of every assigned
// participant, sorted by role then name.
func ScheduleEvents(ev events.PlanEvent, at time.Time) []coremetrics.ScheduleEvent {
	type key struct {
		name string
		role model.Role
	}
	load := map[key]*coremetrics.ScheduleEvent{}
	add := func(name string, role model.Role, laps int) {
		if name == "" || name == model.None {
			return
		}
		k := key{name, role}
		e, ok := load[k]
		if !ok {
			e = &coremetrics.ScheduleEvent{
				RunID: ev.RunID, Mode: ev.Mode, Participant: name, Role: role.String(), Time: at,
			}
			load[k] = e
		}
		e.Stints++
		e.Laps += laps
	}
	for _, a := range ev.Schedule {
		add(a.Driver, model.RoleDriving, a.Stint.Laps)
		add(a.Spotter, model.RoleSpotting, a.Stint.Laps)
	}
	out := make([]coremetrics.ScheduleEvent, 0, len(load))
	for _, e := range load {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].Participant < out[j].Participant
	})
	return out
}
