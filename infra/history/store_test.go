package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stintplan/config"
	corehistory "github.com/kilianp07/stintplan/core/history"
)

var base = time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)

func record(offset time.Duration, drivers ...string) corehistory.RunRecord {
	rec := corehistory.RunRecord{
		ID:        uuid.NewString(),
		Timestamp: base.Add(offset),
		RaceStart: base,
		Mode:      "none",
		Status:    "optimal",
		Duration:  time.Second,
	}
	for i, d := range drivers {
		rec.Schedule = append(rec.Schedule, corehistory.Assignment{Stint: i + 1, Driver: d, Laps: 20})
	}
	return rec
}

func openStores(t *testing.T) map[string]corehistory.RunStore {
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "runs.jsonl"))
	require.NoError(t, err)
	rotating, err := NewRotatingJSONLStore(filepath.Join(dir, "rotating", "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	stores := map[string]corehistory.RunStore{"jsonl": jsonl, "rotating": rotating, "sqlite": sqlite}
	if rs := openRedis(t); rs != nil {
		stores["redis"] = rs
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoresAppendQuery(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(ctx, record(0, "A", "B")))
			require.NoError(t, store.Append(ctx, record(time.Hour, "B", "C")))
			require.NoError(t, store.Append(ctx, record(2*time.Hour, "C", "C")))

			all, err := store.Query(ctx, corehistory.RunQuery{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, base, all[0].Timestamp.UTC())
			assert.Equal(t, "A", all[0].Schedule[0].Driver)

			checks := []struct {
				name string
				q    corehistory.RunQuery
				want int
			}{
				{"participant B", corehistory.RunQuery{Participant: "B"}, 2},
				{"participant D", corehistory.RunQuery{Participant: "D"}, 0},
				{"from 1h", corehistory.RunQuery{Start: base.Add(time.Hour)}, 2},
				{"until 1h", corehistory.RunQuery{End: base.Add(time.Hour)}, 2},
				{"window and C", corehistory.RunQuery{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute), Participant: "C"}, 1},
			}
			for _, c := range checks {
				out, err := store.Query(ctx, c.q)
				require.NoError(t, err, c.name)
				assert.Len(t, out, c.want, c.name)
			}
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// each record is about 150 kB, so a 1 MB file rotates every few appends
	drivers := make([]string, 1500)
	for i := range drivers {
		drivers[i] = "Driver"
	}
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.Append(ctx, record(time.Duration(i)*time.Minute, drivers...)))
	}
	files, err := store.files()
	require.NoError(t, err)
	assert.Greater(t, len(files), 1)

	out, err := store.Query(ctx, corehistory.RunQuery{})
	require.NoError(t, err)
	require.Len(t, out, 25)
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i].Timestamp.After(out[i-1].Timestamp), "records out of order at %d", i)
	}
}

func TestJSONLStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), record(0, "A")))
	require.NoError(t, appendRaw(path, "{not json\n"))
	require.NoError(t, store.Append(context.Background(), record(time.Minute, "B")))

	out, err := store.Query(context.Background(), corehistory.RunQuery{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestQueryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	assert.ErrorIs(t, store.Append(ctx, record(0, "A")), context.Canceled)
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	checks := []struct {
		name    string
		cfg     config.HistoryConfig
		want    any
		wantErr bool
	}{
		{"none", config.HistoryConfig{Backend: "none"}, corehistory.NopStore{}, false},
		{"jsonl", config.HistoryConfig{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}, false},
		{"rotating", config.HistoryConfig{Backend: "rotating", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 1}, &RotatingJSONLStore{}, false},
		{"sqlite", config.HistoryConfig{Backend: "sqlite", Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}, false},
		{"unknown", config.HistoryConfig{Backend: "redis"}, nil, true},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			s, err := NewStore(c.cfg)
			if c.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, c.want, s)
			assert.NoError(t, s.Close())
		})
	}
}
