// Package app wires configuration, the planner and its side channels
// (metrics, run history, error monitoring, MQTT publishing) into one
// service used by the CLI.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/stintplan/config"
	"github.com/kilianp07/stintplan/core/events"
	corehistory "github.com/kilianp07/stintplan/core/history"
	"github.com/kilianp07/stintplan/core/itinerary"
	coremetrics "github.com/kilianp07/stintplan/core/metrics"
	"github.com/kilianp07/stintplan/core/model"
	coremon "github.com/kilianp07/stintplan/core/monitoring"
	coremqtt "github.com/kilianp07/stintplan/core/mqtt"
	"github.com/kilianp07/stintplan/core/planner"
	coresolver "github.com/kilianp07/stintplan/core/solver"
	"github.com/kilianp07/stintplan/infra/history"
	"github.com/kilianp07/stintplan/infra/logger"
	"github.com/kilianp07/stintplan/infra/metrics"
	"github.com/kilianp07/stintplan/infra/monitoring"
	"github.com/kilianp07/stintplan/infra/mqtt"
	"github.com/kilianp07/stintplan/infra/solver"
	"github.com/kilianp07/stintplan/internal/eventbus"
	"github.com/kilianp07/stintplan/pkg/export"
)

// Service plans races and fans the results out to the configured sinks.
type Service struct {
	cfg       *config.Config
	solver    coresolver.Solver
	planner   *planner.Planner
	phases    *eventbus.Bus[events.PhaseEvent]
	plans     *eventbus.Bus[events.PlanEvent]
	sink      coremetrics.MetricsSink
	collected <-chan struct{}
	stop      context.CancelFunc
	history   corehistory.RunStore
	publisher coremqtt.Publisher
	monitor   coremon.Monitor
	log       logger.Logger
}

// Option replaces a dependency New would otherwise build from configuration.
type Option func(*Service)

// WithSolver sets the MILP backend.
func WithSolver(s coresolver.Solver) Option { return func(svc *Service) { svc.solver = s } }

// WithMetricsSink sets the metrics sink.
func WithMetricsSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// WithHistory sets the run archive.
func WithHistory(s corehistory.RunStore) Option { return func(svc *Service) { svc.history = s } }

// WithPublisher sets the MQTT publisher.
func WithPublisher(p coremqtt.Publisher) Option { return func(svc *Service) { svc.publisher = p } }

// WithMonitor sets the error monitor instead of the configured Sentry one.
func WithMonitor(m coremon.Monitor) Option { return func(svc *Service) { svc.monitor = m } }

// Result is the outcome of Solve.
type Result struct {
	Plan      *planner.Plan
	Solved    export.SolvedFile
	Itinerary model.Itinerary
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := logger.Configure(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	svc := &Service{cfg: cfg, log: logger.New("service")}
	for _, o := range opts {
		o(svc)
	}

	var err error
	if svc.monitor == nil {
		if svc.monitor, err = monitoring.NewSentryMonitor(cfg.Sentry); err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
	}
	coremon.Init(svc.monitor)

	fail := func(err error) (*Service, error) {
		svc.release()
		return nil, err
	}
	if svc.solver == nil {
		solver.SetLogger(logger.New("solver"))
		if svc.solver, err = solver.New(cfg.Solver.Backend); err != nil {
			return fail(fmt.Errorf("solver backend: %w", err))
		}
	}
	popts, err := cfg.Solver.PlannerOptions()
	if err != nil {
		return fail(fmt.Errorf("planner options: %w", err))
	}
	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return fail(fmt.Errorf("metrics sink: %w", err))
		}
		svc.sink = sink
	}
	if svc.history == nil {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return fail(fmt.Errorf("history store: %w", err))
		}
		svc.history = store
	}
	if svc.publisher == nil {
		pub, err := mqtt.New(cfg.Publish)
		if err != nil {
			return fail(fmt.Errorf("mqtt publisher: %w", err))
		}
		svc.publisher = pub
	}

	svc.phases = eventbus.New[events.PhaseEvent](32)
	svc.plans = eventbus.New[events.PlanEvent](8)
	var ctx context.Context
	ctx, svc.stop = context.WithCancel(context.Background())
	svc.collected = metrics.StartEventCollector(ctx, svc.phases, svc.plans, svc.sink)
	if addr := cfg.Metrics.Listen; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, nil); err != nil {
				svc.log.Errorf("prom server on %s: %v", addr, err)
			}
		}()
	}
	svc.planner = planner.New(svc.solver, popts, logger.New("planner")).WithEvents(svc.phases)
	return svc, nil
}

// Solve plans the race, archives the run and publishes the schedule. Only
// planning failures are returned; archive and publish failures are logged.
func (s *Service) Solve(ctx context.Context, race *config.RaceFile) (*Result, error) {
	defer func() {
		if r := recover(); r != nil {
			coremon.Recover(r)
			panic(r)
		}
	}()
	cfg, err := race.ToModel()
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	plan, err := s.planner.PlanRun(ctx, runID, cfg)
	if err != nil {
		tags := map[string]string{"module": "planner", "run_id": runID}
		var pe *planner.PhaseError
		if errors.As(err, &pe) {
			tags["phase"] = strconv.Itoa(pe.Phase)
			tags["role"] = pe.Role
		}
		if !errors.Is(err, model.ErrInvalidConfig) {
			coremon.CaptureException(err, tags)
		}
		return nil, err
	}
	s.plans.Publish(events.PlanEvent{RunID: runID, Mode: string(plan.Mode), Schedule: plan.Schedule, Elapsed: plan.Elapsed})

	res := &Result{
		Plan:   plan,
		Solved: export.NewSolvedFile(*race, plan.Schedule, plan.Elapsed),
		Itinerary: itinerary.Consolidate(plan.Schedule, itinerary.Input{
			Timeline:     plan.Timeline,
			Participants: cfg.Participants,
		}),
	}

	rec := corehistory.RunRecord{
		ID:        runID,
		Timestamp: time.Now().UTC(),
		RaceStart: cfg.Start,
		Mode:      string(plan.Mode),
		Status:    plan.Status.String(),
		Duration:  plan.Elapsed,
		Schedule:  corehistory.FromSchedule(plan.Schedule),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.log.Errorf("archive run %s: %v", runID, err)
		coremon.CaptureException(err, map[string]string{"module": "history"})
	}

	payload, err := json.Marshal(res.Solved)
	if err != nil {
		s.log.Errorf("encode schedule: %v", err)
	} else if err := s.publisher.Publish(ctx, payload); err != nil {
		s.log.Errorf("publish schedule: %v", err)
	}
	return res, nil
}

// History returns archived runs matching q.
func (s *Service) History(ctx context.Context, q corehistory.RunQuery) ([]corehistory.RunRecord, error) {
	return s.history.Query(ctx, q)
}

// Close drains pending metrics, flushes the sinks and releases every
// connection.
func (s *Service) Close() error {
	s.phases.Close()
	s.plans.Close()
	select {
	case <-s.collected:
	case <-time.After(5 * time.Second):
		s.log.Warnf("metrics collector did not drain in time")
	}
	s.stop()

	var errs []error
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		if err := f.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush metrics: %w", err))
		}
	}
	return errors.Join(append(errs, s.release()...)...)
}

// release closes whatever New managed to build, in reverse order, and
// flushes the monitor. Fields left nil by a failed New are skipped.
func (s *Service) release() []error {
	var errs []error
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	if c, ok := s.sink.(coremetrics.Closer); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errs
}
