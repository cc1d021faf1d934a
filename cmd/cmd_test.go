package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stintplan/pkg/export"
)

const raceJSON = `{
  "raceStartUTC": "2025-06-14T12:00:00.000Z",
  "durationHours": 2,
  "avgLapTimeInSeconds": 120,
  "pitTimeInSeconds": 60,
  "fuelTankSize": 100,
  "fuelUsePerLap": 5,
  "teamMembers": [
    {"name": "A", "isDriver": true},
    {"name": "B", "isDriver": true, "timezone": 2},
    {"name": "C", "isDriver": true, "timezone": -4}
  ],
  "availability": {
    "A": {"2025-06-14T12:00:00.000Z": "Available", "2025-06-14T13:00:00.000Z": "Available", "2025-06-14T14:00:00.000Z": "Available"},
    "B": {"2025-06-14T12:00:00.000Z": "Available", "2025-06-14T13:00:00.000Z": "Available", "2025-06-14T14:00:00.000Z": "Available"},
    "C": {"2025-06-14T12:00:00.000Z": "Available", "2025-06-14T13:00:00.000Z": "Available", "2025-06-14T14:00:00.000Z": "Available"}
  }
}`

type workspace struct {
	dir    string
	config string
	race   string
}

func newWorkspace(t *testing.T, history bool) workspace {
	t.Helper()
	dir := t.TempDir()
	cfg := "logging:\n  level: error\n"
	if history {
		cfg += "history:\n  backend: jsonl\n  path: " + filepath.Join(dir, "runs.jsonl") + "\n"
	}
	w := workspace{dir: dir, config: filepath.Join(dir, "config.yaml"), race: filepath.Join(dir, "race.json")}
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o600))
	require.NoError(t, os.WriteFile(w.race, []byte(raceJSON), 0o600))
	return w
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSolveWritesSolvedFile(t *testing.T) {
	w := newWorkspace(t, false)
	solved := filepath.Join(w.dir, "solved.json")

	out, err := run(t, "", "-c", w.config, "solve", w.race, "-o", solved, "--time-limit", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "--- DRIVER SUMMARY ---")
	assert.Contains(t, out, "Solved schedule written to "+solved)

	sf, err := export.LoadSolved(solved)
	require.NoError(t, err)
	require.Len(t, sf.Schedule, 3)
	assert.Equal(t, "2025-06-14 12:00:00", sf.Schedule[0].StartTimeUTC)
}

func TestSolveFromStdin(t *testing.T) {
	w := newWorkspace(t, false)
	out, err := run(t, raceJSON, "-c", w.config, "solve")
	require.NoError(t, err)
	sf, err := export.ReadSolved(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, sf.Schedule, 3)
}

func TestSolveQuiet(t *testing.T) {
	w := newWorkspace(t, false)
	solved := filepath.Join(w.dir, "solved.json")
	out, err := run(t, "", "-c", w.config, "solve", w.race, "-o", solved, "-q")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.FileExists(t, solved)
}

func TestSolveErrors(t *testing.T) {
	w := newWorkspace(t, false)
	checks := []struct {
		name string
		args []string
		want string
	}{
		{"missing race", []string{"-c", w.config, "solve", filepath.Join(w.dir, "nope.json")}, "read race"},
		{"bad spotter mode", []string{"-c", w.config, "solve", w.race, "--spotter-mode", "both"}, "spotter"},
		{"unknown backend", []string{"-c", w.config, "solve", w.race, "--backend", "cplex"}, "solver backend"},
		{"missing config", []string{"-c", filepath.Join(w.dir, "nope.yaml"), "solve", w.race}, "load config"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			_, err := run(t, "", c.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func solvedFixture(t *testing.T, w workspace) string {
	t.Helper()
	solved := filepath.Join(w.dir, "solved.json")
	_, err := run(t, "", "-c", w.config, "solve", w.race, "-o", solved, "-q")
	require.NoError(t, err)
	return solved
}

func TestReport(t *testing.T) {
	w := newWorkspace(t, false)
	solved := solvedFixture(t, w)

	checks := []struct {
		name   string
		out    string
		format string
		check  func(t *testing.T, data []byte)
	}{
		{"csv from extension", "plan.csv", "", func(t *testing.T, data []byte) {
			assert.True(t, strings.HasPrefix(string(data), "Stint,"))
		}},
		{"txt flag wins", "plan.out", "txt", func(t *testing.T, data []byte) {
			assert.Contains(t, string(data), "--- MASTER SCHEDULE (UTC) ---")
		}},
		{"xlsx default", "plan", "", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte("PK")))
		}},
		{"html", "plan.html", "", func(t *testing.T, data []byte) {
			assert.Contains(t, string(data), "Stints per participant")
		}},
		{"ics", "plan.ics", "", func(t *testing.T, data []byte) {
			assert.Equal(t, 3, strings.Count(string(data), "BEGIN:VEVENT"))
		}},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(w.dir, c.out)
			args := []string{"report", solved, path}
			if c.format != "" {
				args = append(args, "--format", c.format)
			}
			out, err := run(t, "", args...)
			require.NoError(t, err)
			assert.Contains(t, out, "report written to "+path)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			c.check(t, data)
		})
	}

	_, err := run(t, "", "report", solved, filepath.Join(w.dir, "x.pdf"), "--format", "pdf")
	assert.ErrorContains(t, err, "unknown report format")
}

func TestItinerary(t *testing.T) {
	w := newWorkspace(t, false)
	solved := solvedFixture(t, w)

	out, err := run(t, "", "itinerary", solved)
	require.NoError(t, err)
	for _, name := range []string{"A", "B", "C"} {
		assert.Contains(t, out, "--- Itinerary for "+name+" ---")
	}

	out, err = run(t, "", "itinerary", solved, "--member", "B")
	require.NoError(t, err)
	assert.Contains(t, out, "--- Itinerary for B ---")
	assert.NotContains(t, out, "--- Itinerary for A ---")

	_, err = run(t, "", "itinerary", solved, "--member", "Z")
	assert.ErrorContains(t, err, `no itinerary for "Z"`)
}

func TestHistory(t *testing.T) {
	w := newWorkspace(t, true)
	solvedFixture(t, w)
	solvedFixture(t, w)

	out, err := run(t, "", "-c", w.config, "history", "--participant", "A")
	require.NoError(t, err)
	assert.Contains(t, out, "SOLVED AT (UTC)")
	assert.Equal(t, 2, strings.Count(out, "2025-06-14 12:00:00"))

	out, err = run(t, "", "-c", w.config, "history", "--participant", "Z")
	require.NoError(t, err)
	assert.NotContains(t, out, "2025-06-14 12:00:00")

	disabled := newWorkspace(t, false)
	_, err = run(t, "", "-c", disabled.config, "history")
	assert.ErrorContains(t, err, "run history is disabled")
}
