package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dubmux/internal/batch"
)

// Run is one recorded batch run.
type Run struct {
	ID         string
	Mode       string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
}

// Episode is one recorded episode result.
type Episode struct {
	Key             string
	BasePath        string
	DonorPath       string
	OutputPath      string
	Success         bool
	Message         string
	OriginalStream  int
	TargetStream    int
	SpeedCorrection bool
	OffsetMS        int
	ExportPath      string
	DurationMS      int64
}

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// StartRun records the beginning of a run.
func (s *Store) StartRun(ctx context.Context, sum batch.Summary) error {
	return s.exec(ctx,
		`INSERT INTO runs (id, mode, dry_run, started_at) VALUES (?, ?, ?, ?)`,
		sum.RunID, sum.Mode, boolInt(sum.DryRun), formatTime(sum.StartedAt),
	)
}

// RecordEpisode appends one episode result to a run.
func (s *Store) RecordEpisode(ctx context.Context, runID string, r batch.Result) error {
	return s.exec(ctx, `
		INSERT INTO episodes (
			run_id, episode_key, base_path, donor_path, output_path, success, message,
			original_stream, target_stream, speed_correction, offset_ms, export_path, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Key.String(), r.BasePath, r.DonorPath, r.OutputPath, boolInt(r.Success), r.Message,
		r.OriginalStream, r.TargetStream, boolInt(r.SpeedCorrection), r.OffsetMS, r.ExportPath,
		r.Duration.Milliseconds(),
	)
}

// FinishRun stores the final counts of a run.
func (s *Store) FinishRun(ctx context.Context, sum batch.Summary) error {
	return s.exec(ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		formatTime(sum.FinishedAt), sum.Succeeded, sum.Failed, sum.RunID,
	)
}

// Runs lists the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, dry_run, started_at, finished_at, succeeded, failed
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var dryRun int
		var started, finished sql.NullString
		if err := rows.Scan(&run.ID, &run.Mode, &dryRun, &started, &finished, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.DryRun = dryRun != 0
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Episodes lists the episodes of runID in key order.
func (s *Store) Episodes(ctx context.Context, runID string) ([]Episode, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT episode_key, base_path, donor_path, output_path, success, message,
		       original_stream, target_stream, speed_correction, offset_ms, export_path, duration_ms
		FROM episodes WHERE run_id = ? ORDER BY length(episode_key), episode_key`, runID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		var success, speed int
		if err := rows.Scan(&ep.Key, &ep.BasePath, &ep.DonorPath, &ep.OutputPath, &success, &ep.Message,
			&ep.OriginalStream, &ep.TargetStream, &speed, &ep.OffsetMS, &ep.ExportPath, &ep.DurationMS); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.Success = success != 0
		ep.SpeedCorrection = speed != 0
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}
