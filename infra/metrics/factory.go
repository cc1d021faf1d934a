package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/stintplan/core/factory"
	coremetrics "github.com/kilianp07/stintplan/core/metrics"
)

// decoded adapts a typed constructor to the sink registry.
func decoded[C any](build func(C) (coremetrics.MetricsSink, error)) factory.Factory[coremetrics.MetricsSink] {
	return func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c C
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return build(c)
	}
}

func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = coremetrics.RegisterMetricsSink("prometheus", decoded(func(c PromConfig) (coremetrics.MetricsSink, error) {
		s, err := NewPromSinkWithRegistry(c, prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		return s, nil
	}))
	_ = coremetrics.RegisterMetricsSink("influx", decoded(func(c InfluxConfig) (coremetrics.MetricsSink, error) {
		return NewInfluxSinkWithFallback(c), nil
	}))
}
