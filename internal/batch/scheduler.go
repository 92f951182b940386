package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dubmux/internal/episode"
	"dubmux/internal/ffmpeg"
	"dubmux/internal/logging"
	"dubmux/internal/media/ffprobe"
	"dubmux/internal/naming"
	"dubmux/internal/syncplan"
	"dubmux/internal/trackplan"
)

// DefaultTempDirName is the per-output scratch directory.
const DefaultTempDirName = ".dubmux-tmp"

// Backend is the media backend the scheduler drives.
type Backend interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
	Preprocess(ctx context.Context, donorPath string, p trackplan.Preprocess, dest string) (string, error)
	Combine(ctx context.Context, in ffmpeg.CombineInputs, plan trackplan.Plan) (string, error)
	ExtractAudio(ctx context.Context, src string, streamIndex int, dest string) (string, error)
	DryRun() bool
}

// Recorder persists run outcomes. Failures are logged, never fatal.
type Recorder interface {
	StartRun(ctx context.Context, s Summary) error
	RecordEpisode(ctx context.Context, runID string, r Result) error
	FinishRun(ctx context.Context, s Summary) error
}

// Options control one run.
type Options struct {
	OutputDir    string
	TempDirName  string
	Workers      int
	Force        bool
	NoCorrection bool
	MultiTag     string
	Offsets      syncplan.Offsets
	Thresholds   syncplan.Thresholds

	ExportAudio bool
	ExportDir   string
}

// Scheduler fans episodes out to the backend.
type Scheduler struct {
	backend  Backend
	builder  *trackplan.Builder
	opts     Options
	logger   *slog.Logger
	recorder Recorder
	newRunID func() string
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithRecorder attaches a history recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// New returns a scheduler. Workers below 1 fall back to the CPU count.
func New(backend Backend, builder *trackplan.Builder, opts Options, options ...Option) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if strings.TrimSpace(opts.TempDirName) == "" {
		opts.TempDirName = DefaultTempDirName
	}
	if strings.TrimSpace(opts.MultiTag) == "" {
		opts.MultiTag = naming.DefaultMultiTag
	}
	s := &Scheduler{
		backend:  backend,
		builder:  builder,
		opts:     opts,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
	for _, o := range options {
		o(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "batch")
	return s
}

// Jobs turns sorted pairs into jobs, resolving output paths and offsets.
func (s *Scheduler) Jobs(pairs []episode.Pair) []Job {
	jobs := make([]Job, 0, len(pairs))
	for _, p := range pairs {
		jobs = append(jobs, Job{
			Key:        p.Key,
			BasePath:   p.BasePath,
			DonorPath:  p.DonorPath,
			OutputPath: naming.OutputPath(s.opts.OutputDir, p.BasePath, s.opts.MultiTag),
			OffsetMS:   s.opts.Offsets.Lookup(p.Key),
		})
	}
	return jobs
}

// Run processes pairs with at most Workers episodes in flight. The returned
// error covers batch-level failures only; episode failures are reported in
// the summary (see Summary.Err).
func (s *Scheduler) Run(ctx context.Context, pairs []episode.Pair) (Summary, error) {
	runID := s.newRunID()
	dryRun := s.backend.DryRun()
	summary := Summary{
		RunID:     runID,
		Mode:      s.builder.Mode().String(),
		DryRun:    dryRun,
		StartedAt: s.now(),
	}
	if len(pairs) == 0 {
		return summary, ErrNoPairs
	}
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, s.logger)

	tmpDir := filepath.Join(s.opts.OutputDir, s.opts.TempDirName, runID)
	if !dryRun {
		lock, err := acquireLock(s.opts.OutputDir)
		if err != nil {
			return summary, err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release output lock", logging.Error(err))
			}
		}()
		if err := os.MkdirAll(tmpDir, 0o755); err != nil {
			return summary, err
		}
		defer s.removeTempDir(logger, tmpDir)
	}

	s.record(ctx, logger, "start", func() error { return s.recorder.StartRun(ctx, summary) })

	jobs := s.Jobs(pairs)
	logger.Info("batch started",
		logging.Int("episodes", len(jobs)),
		logging.Int("workers", s.opts.Workers),
		logging.String("mode", summary.Mode),
		logging.Bool("dry_run", dryRun),
		logging.String(logging.FieldEventType, "batch_start"),
	)

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = s.runEpisode(ctx, job, tmpDir)
			s.record(ctx, logger, "episode", func() error { return s.recorder.RecordEpisode(ctx, runID, results[i]) })
			return nil
		})
	}
	_ = g.Wait()

	summary.Results = results
	summary.FinishedAt = s.now()
	summarize(&summary)

	s.record(ctx, logger, "finish", func() error { return s.recorder.FinishRun(ctx, summary) })
	logger.Info("batch finished",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	return summary, nil
}

func (s *Scheduler) record(ctx context.Context, logger *slog.Logger, what string, fn func() error) {
	if s.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		logging.WarnWithContext(logger, "run history write failed", "history_write_failed",
			logging.String("record", what),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history is incomplete"),
		)
	}
}

// removeTempDir deletes this run's scratch directory and the shared parent
// when no other run uses it.
func (s *Scheduler) removeTempDir(logger *slog.Logger, tmpDir string) {
	if err := os.RemoveAll(tmpDir); err != nil {
		logger.Debug("temp dir cleanup failed", logging.String("path", tmpDir), logging.Error(err))
	}
	_ = os.Remove(filepath.Dir(tmpDir))
}
