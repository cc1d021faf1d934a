package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/stintplan/core/metrics"
)

// PromConfig configures the Prometheus sink. When PushURL is set, Flush
// pushes the collected metrics to a Pushgateway, which suits one-shot runs.
type PromConfig struct {
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// PromSink records solve rounds and participant load in Prometheus metrics.
type PromSink struct {
	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.GaugeVec
	load     *prometheus.GaugeVec
	pusher   *push.Pusher
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stintplan_solves_total",
		Help: "Solve rounds by phase, roles and final status",
	}, []string{"phase", "roles", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stintplan_solve_duration_seconds",
		Help:    "Wall time spent in the MILP backend per round",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"roles", "status"})
	size := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stintplan_problem_size",
		Help: "Variables and constraints of the last model per roles",
	}, []string{"roles", "kind"})
	load := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stintplan_participant_stints",
		Help: "Stints assigned to each participant in the last plan",
	}, []string{"participant", "role"})

	var err error
	if solves, err = register(reg, solves); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if size, err = register(reg, size); err != nil {
		return nil, err
	}
	if load, err = register(reg, load); err != nil {
		return nil, err
	}

	s := &PromSink{solves: solves, duration: duration, size: size, load: load}
	if cfg.PushURL != "" {
		job := cfg.Job
		if job == "" {
			job = "stintplan"
		}
		s.pusher = push.New(cfg.PushURL, job).
			Collector(solves).
			Collector(duration).
			Collector(size).
			Collector(load)
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the round and observes its duration.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(strconv.Itoa(ev.Phase), ev.Roles, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Roles, ev.Status).Observe(ev.Duration.Seconds())
	s.size.WithLabelValues(ev.Roles, "variables").Set(float64(ev.Variables))
	s.size.WithLabelValues(ev.Roles, "constraints").Set(float64(ev.Constraints))
	return nil
}

// RecordSchedule sets the per-participant stint gauges.
func (s *PromSink) RecordSchedule(evs []coremetrics.ScheduleEvent) error {
	for _, ev := range evs {
		s.load.WithLabelValues(ev.Participant, ev.Role).Set(float64(ev.Stints))
	}
	return nil
}

// Flush pushes to the configured Pushgateway. Without one it does nothing.
func (s *PromSink) Flush() error {
	if s.pusher == nil {
		return nil
	}
	return s.pusher.Push()
}
