package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// RunStore persists runs, episodes, weight statistics, and checkpoints
// to a SQLite database. Safe for concurrent use.
type RunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// Open creates a RunStore rooted at dir.
// The database lives at dir/spikeloop.db; the directory is created if needed.
func Open(dir string) (*RunStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "spikeloop.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &RunStore{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// CreateRun inserts a new run row and returns its generated ID.
// Status starts as "running"; CreatedAt is set to the current time.
func (s *RunStore) CreateRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, status, seed, dt, timesteps, epochs, dataset, topology)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
		int64(run.Seed),
		run.DT,
		run.Timesteps,
		run.Epochs,
		run.Dataset,
		run.Topology,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run as complete or failed and stamps its finish time.
func (s *RunStore) FinishRun(ctx context.Context, id string, status string) error {
	if status != StatusComplete && status != StatusFailed {
		return fmt.Errorf("invalid finish status: %s", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		run        Run
		createdAt  string
		finishedAt sql.NullString
		dataset    sql.NullString
		topology   sql.NullString
		seed       int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, finished_at, status, seed, dt, timesteps, epochs, dataset, topology
		FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &createdAt, &finishedAt, &run.Status, &seed,
		&run.DT, &run.Timesteps, &run.Epochs, &dataset, &topology)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to query run: %w", err)
	}

	run.Seed = uint64(seed)
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if finishedAt.Valid {
		t, perr := time.Parse(time.RFC3339Nano, finishedAt.String)
		if perr == nil {
			run.FinishedAt = &t
		}
	}
	run.Dataset = dataset.String
	run.Topology = topology.String
	return run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means no limit.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, created_at, finished_at, status, seed, dt, timesteps, epochs, dataset, topology
		FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			createdAt  string
			finishedAt sql.NullString
			dataset    sql.NullString
			topology   sql.NullString
			seed       int64
		)
		if err := rows.Scan(&run.ID, &createdAt, &finishedAt, &run.Status, &seed,
			&run.DT, &run.Timesteps, &run.Epochs, &dataset, &topology); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Seed = uint64(seed)
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if finishedAt.Valid {
			t, perr := time.Parse(time.RFC3339Nano, finishedAt.String)
			if perr == nil {
				run.FinishedAt = &t
			}
		}
		run.Dataset = dataset.String
		run.Topology = topology.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordEpisode inserts one episode row.
func (s *RunStore) RecordEpisode(ctx context.Context, ep Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positive := 0
	if ep.Positive {
		positive = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, epoch, sample_index, positive, goodness, loss, output_spikes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.RunID, ep.Epoch, ep.SampleIndex, positive,
		ep.Goodness, ep.Loss, ep.OutputSpikes,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	return nil
}

// Episodes returns all episodes of a run ordered by epoch and sample index.
func (s *RunStore) Episodes(ctx context.Context, runID string) ([]Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, epoch, sample_index, positive, goodness, loss, output_spikes, created_at
		FROM episodes WHERE run_id = ? ORDER BY epoch, sample_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var (
			ep        Episode
			positive  int
			createdAt string
		)
		if err := rows.Scan(&ep.RunID, &ep.Epoch, &ep.SampleIndex, &positive,
			&ep.Goodness, &ep.Loss, &ep.OutputSpikes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		ep.Positive = positive != 0
		ep.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// RecordWeightStats inserts one weight statistic row per synapse for a step.
func (s *RunStore) RecordWeightStats(ctx context.Context, stats []WeightStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ws := range stats {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO weight_stats (run_id, step, synapse, mean, std, min, max)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ws.RunID, ws.Step, ws.Synapse, ws.Mean, ws.Std, ws.Min, ws.Max); err != nil {
			return fmt.Errorf("failed to insert weight stat: %w", err)
		}
	}
	return tx.Commit()
}

// WeightStats returns the weight statistic time series for one synapse of a run.
func (s *RunStore) WeightStats(ctx context.Context, runID string, synapse int) ([]WeightStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, step, synapse, mean, std, min, max
		FROM weight_stats WHERE run_id = ? AND synapse = ? ORDER BY step`, runID, synapse)
	if err != nil {
		return nil, fmt.Errorf("failed to query weight stats: %w", err)
	}
	defer rows.Close()

	var stats []WeightStat
	for rows.Next() {
		var ws WeightStat
		if err := rows.Scan(&ws.RunID, &ws.Step, &ws.Synapse,
			&ws.Mean, &ws.Std, &ws.Min, &ws.Max); err != nil {
			return nil, fmt.Errorf("failed to scan weight stat: %w", err)
		}
		stats = append(stats, ws)
	}
	return stats, rows.Err()
}

// SaveCheckpoint stores a JSON checkpoint blob for a run at a given step.
// Saving again at the same step replaces the previous blob.
func (s *RunStore) SaveCheckpoint(ctx context.Context, runID string, step int64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checkpoints (run_id, step, created_at, data)
		VALUES (?, ?, ?, ?)`,
		runID, step, time.Now().UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LatestCheckpoint returns the most recent checkpoint blob for a run
// together with the step it was taken at.
func (s *RunStore) LatestCheckpoint(ctx context.Context, runID string) ([]byte, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		step int64
		data string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT step, data FROM checkpoints
		WHERE run_id = ? ORDER BY step DESC LIMIT 1`, runID).Scan(&step, &data)
	if err == sql.ErrNoRows {
		return nil, 0, fmt.Errorf("no checkpoint for run: %s", runID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query checkpoint: %w", err)
	}
	return []byte(data), step, nil
}
