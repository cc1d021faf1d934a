package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/stintplan/app"
	"github.com/kilianp07/stintplan/config"
	"github.com/kilianp07/stintplan/core/factory"
	"github.com/kilianp07/stintplan/core/history"
	"github.com/kilianp07/stintplan/pkg/export"
)

const (
	influxOrg     = "e2e_org"
	influxBucket  = "e2e_bucket"
	influxToken   = "e2e-token"
	scheduleTopic = "race/schedule"
)

// startInflux starts an InfluxDB 2.7 container initialised with the e2e
// organisation, bucket and token.
func startInflux(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "8086")
	require.NoError(t, err)
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto starts a broker that accepts anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "1883")
	require.NoError(t, err)
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func hours(keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = "Available"
	}
	return out
}

func race() *config.RaceFile {
	avail := hours("2025-06-14T12:00:00.000Z", "2025-06-14T13:00:00.000Z", "2025-06-14T14:00:00.000Z")
	return &config.RaceFile{
		RaceStartUTC:        "2025-06-14T12:00:00.000Z",
		DurationHours:       2,
		AvgLapTimeInSeconds: 120,
		PitTimeInSeconds:    60,
		FuelTankSize:        100,
		FuelUsePerLap:       5,
		TeamMembers: []config.MemberFile{
			{Name: "A", IsDriver: true, IsSpotter: true},
			{Name: "B", IsDriver: true, IsSpotter: true},
			{Name: "C", IsDriver: true, IsSpotter: true},
		},
		Availability: map[string]map[string]string{"A": avail, "B": avail, "C": avail},
	}
}

// TestE2ESolvePublishesAndRecords plans a race with sequential spotters and
// checks the metrics in InfluxDB, the retained schedule on the broker and
// the archived run.
func TestE2ESolvePublishesAndRecords(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxURL := startInflux(ctx, t)
	broker := startMosquitto(ctx, t)

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Solver.SpotterMode = "sequential"
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "influx", Conf: map[string]any{
		"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket,
	}}}
	cfg.Publish.Broker = broker
	cfg.Publish.Topic = scheduleTopic
	cfg.Publish.QoS = 1
	cfg.Publish.Retain = true
	cfg.History = config.HistoryConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "runs.db")}

	svc, err := app.New(cfg)
	require.NoError(t, err)
	res, err := svc.Solve(ctx, race())
	require.NoError(t, err)
	require.Len(t, res.Solved.Schedule, 3)

	runs, err := svc.History(ctx, history.RunQuery{Participant: "A"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "sequential", runs[0].Mode)
	require.NoError(t, svc.Close())

	reader := NewInfluxReader(influxURL, influxOrg, influxBucket, influxToken)
	defer reader.Close()
	phases, err := reader.CountRecords(ctx, "solve_phase", "duration_ms", "run_id", res.Plan.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, phases, "one driving and one spotting round")
	load, err := reader.CountRecords(ctx, "participant_load", "stints", "", "")
	require.NoError(t, err)
	assert.Positive(t, load)

	got := make(chan []byte, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-reader"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	tok = sub.Subscribe(scheduleTopic, 1, func(_ paho.Client, m paho.Message) { got <- m.Payload() })
	require.True(t, tok.WaitTimeout(5*time.Second))

	select {
	case msg := <-got:
		sf, err := export.ReadSolved(bytes.NewReader(msg))
		require.NoError(t, err)
		assert.Equal(t, res.Solved.Schedule, sf.Schedule)
		for _, e := range sf.Schedule {
			assert.NotEqual(t, e.Driver, e.Spotter)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for retained schedule")
	}
}
