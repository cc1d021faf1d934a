// Package metrics defines the planning metrics contract. Sinks such as the
// Prometheus and InfluxDB implementations in infra/metrics record one
// SolveEvent per solve round and one ScheduleEvent per participant and role
// once a plan is produced. NewMetricsSink builds a MultiSink automatically
// when several sinks are configured.
package metrics
