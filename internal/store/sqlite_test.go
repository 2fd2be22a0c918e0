package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "spikeloop.db")); err != nil {
		t.Errorf("expected spikeloop.db to exist: %v", err)
	}
}

func TestOpen_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "runs")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed for nested dir: %v", err)
	}
	s.Close()
}

func TestCreateRun_GetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, Run{
		Seed:      42,
		DT:        0.1,
		Timesteps: 40,
		Epochs:    50,
		Dataset:   "xor",
		Topology:  `{"layers":[]}`,
	})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty run ID")
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.ID != id {
		t.Errorf("ID = %s, want %s", run.ID, id)
	}
	if run.Status != StatusRunning {
		t.Errorf("Status = %s, want %s", run.Status, StatusRunning)
	}
	if run.Seed != 42 {
		t.Errorf("Seed = %d, want 42", run.Seed)
	}
	if run.DT != 0.1 {
		t.Errorf("DT = %f, want 0.1", run.DT)
	}
	if run.Dataset != "xor" {
		t.Errorf("Dataset = %s, want xor", run.Dataset)
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if run.FinishedAt != nil {
		t.Error("expected nil FinishedAt for a running run")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRun(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestFinishRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, Run{Seed: 1, DT: 0.1, Timesteps: 10, Epochs: 1})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	if err := s.FinishRun(ctx, id, StatusComplete); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != StatusComplete {
		t.Errorf("Status = %s, want %s", run.Status, StatusComplete)
	}
	if run.FinishedAt == nil {
		t.Error("expected FinishedAt to be set")
	}
}

func TestFinishRun_InvalidStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateRun(ctx, Run{Seed: 1, DT: 0.1, Timesteps: 10, Epochs: 1})
	if err := s.FinishRun(ctx, id, "paused"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestFinishRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.FinishRun(context.Background(), "missing", StatusFailed); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.CreateRun(ctx, Run{Seed: uint64(i), DT: 0.1, Timesteps: 10, Epochs: 1})
		if err != nil {
			t.Fatalf("CreateRun %d failed: %v", i, err)
		}
		ids = append(ids, id)
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}

	limited, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs with limit, got %d", len(limited))
	}
}

func TestRecordEpisode_Episodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateRun(ctx, Run{Seed: 1, DT: 0.1, Timesteps: 10, Epochs: 2})

	episodes := []Episode{
		{RunID: id, Epoch: 0, SampleIndex: 0, Positive: true, Goodness: 0.9, Loss: 0.1, OutputSpikes: 12},
		{RunID: id, Epoch: 0, SampleIndex: 1, Positive: false, Goodness: 0.2, Loss: 0.25, OutputSpikes: 3},
		{RunID: id, Epoch: 1, SampleIndex: 0, Positive: true, Goodness: 0.95, Loss: 0.05, OutputSpikes: 14},
	}
	for _, ep := range episodes {
		if err := s.RecordEpisode(ctx, ep); err != nil {
			t.Fatalf("RecordEpisode failed: %v", err)
		}
	}

	got, err := s.Episodes(ctx, id)
	if err != nil {
		t.Fatalf("Episodes failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(got))
	}
	if got[0].Epoch != 0 || got[0].SampleIndex != 0 {
		t.Errorf("episodes not ordered: first = epoch %d sample %d", got[0].Epoch, got[0].SampleIndex)
	}
	if !got[0].Positive {
		t.Error("expected first episode positive")
	}
	if got[1].Positive {
		t.Error("expected second episode negative")
	}
	if got[2].Goodness != 0.95 {
		t.Errorf("goodness = %f, want 0.95", got[2].Goodness)
	}
}

func TestRecordWeightStats_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateRun(ctx, Run{Seed: 1, DT: 0.1, Timesteps: 10, Epochs: 1})

	stats := []WeightStat{
		{RunID: id, Step: 0, Synapse: 0, Mean: 0.01, Std: 0.1, Min: -0.3, Max: 0.3},
		{RunID: id, Step: 0, Synapse: 1, Mean: -0.02, Std: 0.09, Min: -0.25, Max: 0.2},
		{RunID: id, Step: 100, Synapse: 0, Mean: 0.05, Std: 0.12, Min: -0.3, Max: 0.4},
	}
	if err := s.RecordWeightStats(ctx, stats); err != nil {
		t.Fatalf("RecordWeightStats failed: %v", err)
	}

	series, err := s.WeightStats(ctx, id, 0)
	if err != nil {
		t.Fatalf("WeightStats failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 rows for synapse 0, got %d", len(series))
	}
	if series[0].Step != 0 || series[1].Step != 100 {
		t.Errorf("series not ordered by step: %d, %d", series[0].Step, series[1].Step)
	}
	if series[1].Mean != 0.05 {
		t.Errorf("mean = %f, want 0.05", series[1].Mean)
	}
}

func TestCheckpoint_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateRun(ctx, Run{Seed: 1, DT: 0.1, Timesteps: 10, Epochs: 1})

	blob := []byte(`{"weights":[[0.1,0.2]]}`)
	if err := s.SaveCheckpoint(ctx, id, 100, blob); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	if err := s.SaveCheckpoint(ctx, id, 200, []byte(`{"weights":[[0.3,0.4]]}`)); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	data, step, err := s.LatestCheckpoint(ctx, id)
	if err != nil {
		t.Fatalf("LatestCheckpoint failed: %v", err)
	}
	if step != 200 {
		t.Errorf("step = %d, want 200", step)
	}
	if string(data) != `{"weights":[[0.3,0.4]]}` {
		t.Errorf("unexpected checkpoint data: %s", data)
	}
}

func TestLatestCheckpoint_None(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateRun(ctx, Run{Seed: 1, DT: 0.1, Timesteps: 10, Epochs: 1})
	if _, _, err := s.LatestCheckpoint(ctx, id); err == nil {
		t.Error("expected error when no checkpoint exists")
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, err := s1.CreateRun(ctx, Run{Seed: 5, DT: 0.1, Timesteps: 10, Epochs: 1})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	run, err := s2.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun after reopen failed: %v", err)
	}
	if run.Seed != 5 {
		t.Errorf("Seed = %d, want 5", run.Seed)
	}
}
