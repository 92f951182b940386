package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/Hellseher/go-shellquote"

	"dubmux/internal/logging"
	"dubmux/internal/media/ffprobe"
	"dubmux/internal/trackplan"
)

// CommandRunner executes an external command and reports failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Inspector probes one media file.
type Inspector func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Backend runs ffprobe and ffmpeg for the batch.
type Backend struct {
	ffmpegBinary  string
	ffprobeBinary string
	run           CommandRunner
	inspect       Inspector
	dryRun        bool
	logger        *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithRunner replaces the command runner, mainly for tests.
func WithRunner(run CommandRunner) Option {
	return func(b *Backend) {
		if run != nil {
			b.run = run
		}
	}
}

// WithInspector replaces the ffprobe call, mainly for tests.
func WithInspector(inspect Inspector) Option {
	return func(b *Backend) {
		if inspect != nil {
			b.inspect = inspect
		}
	}
}

// WithDryRun makes every execution a logged no-op. Inspection still runs.
func WithDryRun(dryRun bool) Option {
	return func(b *Backend) { b.dryRun = dryRun }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// New returns a backend using the given binaries. Empty names fall back to
// "ffmpeg" and "ffprobe" on PATH.
func New(ffmpegBinary, ffprobeBinary string, opts ...Option) *Backend {
	b := &Backend{
		ffmpegBinary:  strings.TrimSpace(ffmpegBinary),
		ffprobeBinary: strings.TrimSpace(ffprobeBinary),
		run:           defaultCommandRunner,
		inspect:       ffprobe.Inspect,
	}
	if b.ffmpegBinary == "" {
		b.ffmpegBinary = "ffmpeg"
	}
	if b.ffprobeBinary == "" {
		b.ffprobeBinary = "ffprobe"
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "ffmpeg")
	return b
}

// DryRun reports whether executions are skipped.
func (b *Backend) DryRun() bool { return b.dryRun }

// Inspect returns the stream enumeration of path.
func (b *Backend) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	result, err := b.inspect(ctx, b.ffprobeBinary, path)
	if err != nil {
		return ffprobe.Result{}, fmt.Errorf("inspect %s: %w", path, err)
	}
	return result, nil
}

// Preprocess renders the donor audio into dest and returns the command line.
func (b *Backend) Preprocess(ctx context.Context, donorPath string, p trackplan.Preprocess, dest string) (string, error) {
	return b.exec(ctx, "preprocess", PreprocessArgs(donorPath, p, dest))
}

// Combine writes the final output for plan and returns the command line.
func (b *Backend) Combine(ctx context.Context, in CombineInputs, plan trackplan.Plan) (string, error) {
	args, err := CombineArgs(in, plan)
	if err != nil {
		return "", err
	}
	return b.exec(ctx, "combine", args)
}

// ExtractAudio copies one stream of src into a standalone FLAC.
func (b *Backend) ExtractAudio(ctx context.Context, src string, streamIndex int, dest string) (string, error) {
	return b.exec(ctx, "extract", ExtractArgs(src, streamIndex, dest))
}

func (b *Backend) exec(ctx context.Context, stage string, args []string) (string, error) {
	line := shellquote.Join(append([]string{b.ffmpegBinary}, args...)...)
	if b.dryRun {
		b.logger.Info("dry run: command not executed",
			logging.String("stage", stage),
			logging.String("command", line),
			logging.String(logging.FieldEventType, "dry_run_command"),
		)
		return line, nil
	}
	b.logger.Debug("running ffmpeg", logging.String("stage", stage), logging.String("command", line))
	if err := b.run(ctx, b.ffmpegBinary, args...); err != nil {
		return line, fmt.Errorf("ffmpeg %s: %w", stage, err)
	}
	return line, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
