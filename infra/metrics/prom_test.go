package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/stintplan/core/metrics"
)

func TestPromSink_RecordSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	require.NoError(t, err)

	ev := coremetrics.SolveEvent{Phase: 1, Roles: "driving", Status: "optimal", Duration: time.Second, Variables: 40, Constraints: 90}
	require.NoError(t, sink.RecordSolve(ev))
	require.NoError(t, sink.RecordSolve(ev))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.solves.WithLabelValues("1", "driving", "optimal")))
	assert.Equal(t, 40.0, testutil.ToFloat64(sink.size.WithLabelValues("driving", "variables")))
	assert.Equal(t, 90.0, testutil.ToFloat64(sink.size.WithLabelValues("driving", "constraints")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.duration))
	assert.NoError(t, sink.Flush())
}

func TestPromSink_RecordSchedule(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordSchedule([]coremetrics.ScheduleEvent{
		{Participant: "Alice", Role: "driving", Stints: 3},
		{Participant: "Alice", Role: "spotting", Stints: 2},
	}))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.load.WithLabelValues("Alice", "driving")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.load.WithLabelValues("Alice", "spotting")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordSolve(coremetrics.SolveEvent{Phase: 2, Roles: "spotting", Status: "infeasible"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(second.solves.WithLabelValues("2", "spotting", "infeasible")))
}

func TestPromSink_FlushPushes(t *testing.T) {
	var method, path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		method, path, body = r.Method, r.URL.Path, string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewPromSinkWithRegistry(PromConfig{PushURL: srv.URL, Job: "endurance"}, prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Phase: 1, Roles: "driving", Status: "optimal"}))
	require.NoError(t, sink.Flush())

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/endurance", path)
	assert.NotEmpty(t, body)
}

func TestPromSink_FlushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink, err := NewPromSinkWithRegistry(PromConfig{PushURL: srv.URL}, prometheus.NewRegistry())
	require.NoError(t, err)
	err = sink.Flush()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "500"), err.Error())
}
