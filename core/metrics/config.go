package metrics

import "github.com/kilianp07/stintplan/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// Listen, when set, exposes the Prometheus registry on /metrics for as
	// long as the service runs.
	Listen string `json:"listen"`
}
