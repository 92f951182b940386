package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dubmux/internal/batch"
	"dubmux/internal/config"
	"dubmux/internal/episode"
	"dubmux/internal/ffmpeg"
	"dubmux/internal/history"
	"dubmux/internal/logging"
	"dubmux/internal/preflight"
	"dubmux/internal/syncplan"
)

type runFlags struct {
	baseDir         string
	donorDir        string
	outDir          string
	workers         int
	direction       string
	defaultTrack    string
	defaultVF       bool
	relaxExtract    bool
	noSpeedfix      bool
	force           bool
	forcePreprocess bool
	dryRun          bool
	offsets         string
	exportAudio     bool
	exportDir       string
	history         bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Pair episodes and write one MULTi file per pair",
		Long: `Pair episode files from the base and donor trees by their E## token,
probe both inputs, and mux the video, subtitles and fonts of the base with the
original-language and target-language audio into the output directory.

Exits non-zero when any episode fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.runConfig()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			return runBatch(cmd, cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.baseDir, "base-dir", "", "Tree providing the video stream (required)")
	f.StringVar(&flags.donorDir, "donor-dir", "", "Tree providing the other-language audio (required)")
	f.StringVar(&flags.outDir, "out-dir", "", "Output directory (overrides paths.output_dir)")
	f.IntVar(&flags.workers, "workers", 0, "Episodes processed in parallel")
	f.StringVar(&flags.direction, "direction", "", "vf_to_vostfr or vostfr_to_vf")
	f.StringVar(&flags.defaultTrack, "default-track", "", "Default audio track: original or target")
	f.BoolVar(&flags.defaultVF, "default-vf", false, "Shorthand for --default-track target")
	f.BoolVar(&flags.relaxExtract, "relax-extract", false, "Also match E## inside tokens such as S01E01")
	f.BoolVar(&flags.noSpeedfix, "no-speedfix", false, "Never apply the 25 to 23.976 speed correction")
	f.BoolVar(&flags.force, "force", false, "Overwrite existing outputs and exports")
	f.BoolVar(&flags.forcePreprocess, "force-preprocess", false, "Always re-encode the donor audio to FLAC")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Print the ffmpeg commands without running them")
	f.StringVar(&flags.offsets, "offsets", "", "Per-episode offset table (CSV, TOML or YAML)")
	f.BoolVar(&flags.exportAudio, "export-audio", false, "Also write the donor language track as FLAC")
	f.StringVar(&flags.exportDir, "export-dir", "", "Directory for --export-audio (defaults to the output directory)")
	f.BoolVar(&flags.history, "history", false, "Record this run in the history database")
	_ = cmd.MarkFlagRequired("base-dir")
	_ = cmd.MarkFlagRequired("donor-dir")

	return cmd
}

// apply overrides cfg with the flags the user set, then re-normalizes.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("out-dir") {
		cfg.Paths.OutputDir = f.outDir
	}
	if changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if changed("direction") {
		cfg.Batch.Direction = f.direction
	}
	if changed("default-track") {
		cfg.Batch.DefaultTrack = f.defaultTrack
	}
	if f.defaultVF {
		cfg.Batch.DefaultTrack = "target"
	}
	if changed("relax-extract") {
		cfg.Batch.RelaxExtract = f.relaxExtract
	}
	if changed("no-speedfix") {
		cfg.Batch.NoSpeedfix = f.noSpeedfix
	}
	if changed("force") {
		cfg.Batch.Force = f.force
	}
	if changed("force-preprocess") {
		cfg.Batch.ForcePreprocess = f.forcePreprocess
	}
	if changed("offsets") {
		cfg.Batch.OffsetsFile = f.offsets
	}
	if changed("export-audio") {
		cfg.Export.Enabled = f.exportAudio
	}
	if changed("export-dir") {
		cfg.Export.Dir = f.exportDir
	}
	if changed("history") {
		cfg.History.Enabled = f.history
	}
	if changed("workers") && f.workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}

	var err error
	if f.baseDir, err = config.ExpandPath(f.baseDir); err != nil {
		return fmt.Errorf("--base-dir: %w", err)
	}
	if f.donorDir, err = config.ExpandPath(f.donorDir); err != nil {
		return fmt.Errorf("--donor-dir: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	return cfg.ValidateForRun()
}

func runBatch(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	checks := preflight.RunAll(runCtx, cfg, preflight.Inputs{
		BaseDir:   flags.baseDir,
		DonorDir:  flags.donorDir,
		OutputDir: cfg.Paths.OutputDir,
		ExportDir: exportDirFor(cfg),
		DryRun:    flags.dryRun,
	})
	if err := preflight.Failed(checks); err != nil {
		return fmt.Errorf("preflight failed:\n%w", err)
	}

	thresholds, err := thresholdsFromConfig(cfg)
	if err != nil {
		return err
	}
	builder, err := builderFromConfig(cfg, thresholds)
	if err != nil {
		return err
	}
	offsets, err := syncplan.LoadOffsets(cfg.Batch.OffsetsFile, logger)
	if err != nil {
		return err
	}

	pairs, err := pairTrees(logger, flags.baseDir, flags.donorDir, extractorFromConfig(cfg))
	if err != nil {
		return err
	}
	logger.Info("episodes paired",
		logging.Int("pairs", len(pairs)),
		logging.Int("offsets", len(offsets)),
		logging.String(logging.FieldEventType, "pairing_complete"),
	)
	if stale := unpairedOffsets(offsets, pairs); len(stale) > 0 {
		logger.Warn("offset rows match no paired episode",
			logging.String("keys", joinKeys(stale)),
			logging.String(logging.FieldEventType, "offsets_unmatched"),
		)
	}

	backend := ffmpeg.New(cfg.Paths.FFmpegBinary, cfg.Paths.FFprobeBinary,
		ffmpeg.WithDryRun(flags.dryRun),
		ffmpeg.WithLogger(logger),
	)
	options := []batch.Option{batch.WithLogger(logger)}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.String("path", cfg.History.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run is not recorded"),
			)
		} else {
			defer store.Close()
			options = append(options, batch.WithRecorder(store))
		}
	}

	scheduler := batch.New(backend, builder, batch.Options{
		OutputDir:    cfg.Paths.OutputDir,
		TempDirName:  cfg.Paths.TempDirName,
		Workers:      cfg.Batch.Workers,
		Force:        cfg.Batch.Force,
		NoCorrection: cfg.Batch.NoSpeedfix,
		MultiTag:     cfg.Batch.MultiTag,
		Offsets:      offsets,
		Thresholds:   thresholds,
		ExportAudio:  cfg.Export.Enabled,
		ExportDir:    cfg.Export.Dir,
	}, options...)

	summary, err := scheduler.Run(runCtx, pairs)
	if err != nil {
		if errors.Is(err, batch.ErrNoPairs) {
			return fmt.Errorf("%w between %s and %s", err, flags.baseDir, flags.donorDir)
		}
		return err
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if summary.DryRun {
		printDryRunCommands(out, summary, colorize)
	}
	printSummary(out, summary, colorize)
	return summary.Err()
}

func exportDirFor(cfg *config.Config) string {
	if !cfg.Export.Enabled {
		return ""
	}
	if cfg.Export.Dir != "" {
		return cfg.Export.Dir
	}
	return cfg.Paths.OutputDir
}

func printDryRunCommands(out io.Writer, summary batch.Summary, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Commands (dry run)", colorize))
	for _, r := range summary.Results {
		for _, line := range []string{r.PreprocessCommand, r.CombineCommand, r.ExportCommand} {
			if line != "" {
				fmt.Fprintf(out, "# %s\n%s\n", r.Key, line)
			}
		}
	}
	fmt.Fprintln(out)
}

func printSummary(out io.Writer, summary batch.Summary, colorize bool) {
	headers := []string{"Episode", "Status", "VO", "VF", "Speedfix", "Offset", "Result"}
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		status := statusCell(statusOK, colorize)
		detail := filepath.Base(r.OutputPath)
		if !r.Success {
			status = statusCell(statusError, colorize)
			detail = r.Message
		}
		rows = append(rows, []string{
			r.Key.String(),
			status,
			streamCell(r.OriginalStream),
			streamCell(r.TargetStream),
			yesNo(r.SpeedCorrection),
			strconv.Itoa(r.OffsetMS) + " ms",
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft}))
	fmt.Fprintf(out, "%d succeeded, %d failed (run %s)\n", summary.Succeeded, summary.Failed, summary.RunID)
}

func streamCell(index int) string {
	if index < 0 {
		return "-"
	}
	return strconv.Itoa(index)
}

// pairTrees scans both trees and logs the keys that found no partner.
func pairTrees(logger *slog.Logger, baseDir, donorDir string, extractor episode.Extractor) ([]episode.Pair, error) {
	baseMap, err := episode.Scan(baseDir, extractor, logger)
	if err != nil {
		return nil, fmt.Errorf("scan base tree: %w", err)
	}
	donorMap, err := episode.Scan(donorDir, extractor, logger)
	if err != nil {
		return nil, fmt.Errorf("scan donor tree: %w", err)
	}
	baseOnly, donorOnly := episode.Unpaired(baseMap, donorMap)
	if len(baseOnly) > 0 || len(donorOnly) > 0 {
		logger.Info("episodes without a partner skipped",
			logging.String("base_only", joinKeys(baseOnly)),
			logging.String("donor_only", joinKeys(donorOnly)),
			logging.String(logging.FieldEventType, "pairing_unmatched"),
		)
	}
	return episode.Intersect(baseMap, donorMap), nil
}

// unpairedOffsets returns the offset table keys that no pair will consume.
func unpairedOffsets(offsets syncplan.Offsets, pairs []episode.Pair) []episode.Key {
	paired := make(map[episode.Key]struct{}, len(pairs))
	for _, p := range pairs {
		paired[p.Key] = struct{}{}
	}
	var stale []episode.Key
	for _, key := range offsets.Keys() {
		if _, ok := paired[key]; !ok {
			stale = append(stale, key)
		}
	}
	return stale
}

func joinKeys(keys []episode.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}
