package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dubmux/internal/ffmpeg"
	"dubmux/internal/fileutil"
	"dubmux/internal/logging"
	"dubmux/internal/naming"
	"dubmux/internal/streams"
	"dubmux/internal/syncplan"
	"dubmux/internal/trackplan"
)

// runEpisode executes one job and never panics.
func (s *Scheduler) runEpisode(ctx context.Context, job Job, tmpDir string) (res Result) {
	started := time.Now()
	ctx = logging.WithEpisode(ctx, job.Key.String())
	logger := logging.WithContext(ctx, s.logger)
	res = Result{
		Key:            job.Key,
		BasePath:       job.BasePath,
		DonorPath:      job.DonorPath,
		OutputPath:     job.OutputPath,
		OffsetMS:       job.OffsetMS,
		OriginalStream: -1,
		TargetStream:   -1,
	}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
		res.Duration = time.Since(started)
		res.Success = res.Err == nil
		if res.Success {
			res.Message = "OK: " + filepath.Base(job.OutputPath)
		} else {
			res.Message = res.Err.Error()
		}
		s.logResult(logger, res)
	}()

	res.Err = s.process(ctx, logger, job, tmpDir, &res)
	return res
}

func (s *Scheduler) process(ctx context.Context, logger *slog.Logger, job Job, tmpDir string, res *Result) error {
	exists, err := fileutil.Exists(job.OutputPath)
	if err != nil {
		return fmt.Errorf("check output: %w", err)
	}
	if exists && !s.opts.Force {
		return fmt.Errorf("%s: %w", job.OutputPath, ErrOutputExists)
	}

	baseProbe, err := s.backend.Inspect(ctx, job.BasePath)
	if err != nil {
		return err
	}
	donorProbe, err := s.backend.Inspect(ctx, job.DonorPath)
	if err != nil {
		return err
	}
	base, donor := streams.Classify(baseProbe), streams.Classify(donorProbe)

	decision := syncplan.Decision{
		SpeedCorrection: s.opts.Thresholds.Decide(base.FrameRate(), donor.FrameRate(), s.opts.NoCorrection),
		OffsetMS:        job.OffsetMS,
	}
	res.SpeedCorrection = decision.SpeedCorrection
	logger.Debug("speed correction decided", logging.Decision(
		"speed_correction",
		fmt.Sprintf("%t", decision.SpeedCorrection),
		fmt.Sprintf("base %s, donor %s", base.FrameRate(), donor.FrameRate()),
	)...)

	plan, err := s.builder.Build(job.Key, base, donor, decision)
	if err != nil {
		return err
	}
	res.OriginalStream = plan.Audio[0].StreamIndex
	res.TargetStream = plan.Audio[1].StreamIndex
	logger.Debug("track plan built",
		logging.String("plan", plan.String()),
		logging.String("base_rate", base.FrameRate().String()),
		logging.String("donor_rate", donor.FrameRate().String()),
	)

	artifact := ""
	if plan.Preprocess != nil {
		artifact = naming.ArtifactPath(tmpDir, job.Key)
		defer s.removeArtifact(logger, artifact)
		line, err := s.backend.Preprocess(ctx, job.DonorPath, *plan.Preprocess, artifact)
		res.PreprocessCommand = line
		if err != nil {
			return fmt.Errorf("preprocess donor audio: %w", err)
		}
	}

	in := ffmpeg.CombineInputs{
		BasePath:     job.BasePath,
		DonorPath:    job.DonorPath,
		ArtifactPath: artifact,
		OutputPath:   job.OutputPath,
		Title:        naming.ContainerTitle(job.BasePath, job.Key),
	}
	if !s.backend.DryRun() {
		if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	line, err := s.backend.Combine(ctx, in, plan)
	res.CombineCommand = line
	if err != nil {
		return fmt.Errorf("combine: %w", err)
	}

	if s.opts.ExportAudio {
		s.export(ctx, logger, job, plan, artifact, res)
	}
	return nil
}

// export writes the donor language track next to the outputs. Failures are
// warnings only.
func (s *Scheduler) export(ctx context.Context, logger *slog.Logger, job Job, plan trackplan.Plan, artifact string, res *Result) {
	tag := "VO"
	if plan.DonorCarriesTarget() {
		tag = "VF"
	}
	dir := s.opts.ExportDir
	if dir == "" {
		dir = s.opts.OutputDir
	}
	dest := naming.ExportPath(dir, job.BasePath, tag)
	res.ExportPath = dest

	warn := func(msg string, err error) {
		logging.WarnWithContext(logger, msg, "audio_export_failed",
			logging.String("path", dest),
			logging.Error(err),
			logging.String(logging.FieldImpact, "standalone audio not written; output file is unaffected"),
		)
	}

	exists, err := fileutil.Exists(dest)
	if err != nil {
		warn("audio export check failed", err)
		return
	}
	if exists && !s.opts.Force {
		logging.WarnWithContext(logger, "audio export skipped", "audio_export_exists",
			logging.String("path", dest),
			logging.String(logging.FieldErrorHint, "use --force to overwrite"),
			logging.String(logging.FieldImpact, "existing export kept"),
		)
		return
	}

	if artifact != "" {
		if s.backend.DryRun() {
			logger.Info("dry run: would copy preprocessed audio", logging.String("from", artifact), logging.String("to", dest))
			return
		}
		if err := fileutil.CopyVerified(artifact, dest); err != nil {
			warn("audio export copy failed", err)
			res.ExportPath = ""
		}
		return
	}
	if !s.backend.DryRun() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			warn("audio export dir failed", err)
			res.ExportPath = ""
			return
		}
	}
	line, err := s.backend.ExtractAudio(ctx, job.DonorPath, plan.DonorTrack().StreamIndex, dest)
	res.ExportCommand = line
	if err != nil {
		warn("audio export failed", err)
		res.ExportPath = ""
	}
}

func (s *Scheduler) removeArtifact(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("temporary audio cleanup failed", logging.String("path", path), logging.Error(err))
	}
}

func (s *Scheduler) logResult(logger *slog.Logger, res Result) {
	attrs := []logging.Attr{
		logging.Int("original_stream", res.OriginalStream),
		logging.Int("target_stream", res.TargetStream),
		logging.Bool("speed_correction", res.SpeedCorrection),
		logging.Int("offset_ms", res.OffsetMS),
		logging.Duration("elapsed", res.Duration),
	}
	if res.PreprocessCommand != "" {
		attrs = append(attrs, logging.String("preprocess_command", res.PreprocessCommand))
	}
	if res.CombineCommand != "" {
		attrs = append(attrs, logging.String("combine_command", res.CombineCommand))
	}
	if res.Success {
		attrs = append(attrs,
			logging.String("output", res.OutputPath),
			logging.String(logging.FieldEventType, "episode_complete"),
		)
		logger.Info("episode succeeded", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs, logging.Error(res.Err), logging.String(logging.FieldErrorHint, hintFor(res.Err)))
	logging.ErrorWithContext(logger, "episode failed", "episode_failed", attrs...)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, ErrOutputExists):
		return "rerun with --force to overwrite"
	case errors.Is(err, trackplan.ErrMissingOriginalAudio), errors.Is(err, trackplan.ErrMissingTargetAudio):
		return "check audio language tags with dubmux probe"
	case errors.Is(err, trackplan.ErrMissingVideo):
		return "check that the base file carries a video stream or switch --direction"
	default:
		return "inspect the ffmpeg command in the log"
	}
}
