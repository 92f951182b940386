package main

import (
	"fmt"

	"dubmux/internal/config"
	"dubmux/internal/episode"
	"dubmux/internal/language"
	"dubmux/internal/streams"
	"dubmux/internal/syncplan"
	"dubmux/internal/trackplan"
)

func thresholdsFromConfig(cfg *config.Config) (syncplan.Thresholds, error) {
	t := syncplan.Thresholds{
		FilmRate:    streams.FrameRate{Num: cfg.Sync.FilmRateNum, Den: cfg.Sync.FilmRateDen},
		PALRate:     cfg.Sync.PALRate,
		Tolerance:   cfg.Sync.Tolerance,
		SpeedFactor: cfg.Sync.SpeedFactor,
	}
	if err := t.Validate(); err != nil {
		return syncplan.Thresholds{}, fmt.Errorf("sync thresholds: %w", err)
	}
	return t, nil
}

func classifierFromConfig(cfg *config.Config) *streams.Classifier {
	return streams.NewClassifier(streams.Languages{
		Original: language.NewMatcher(cfg.Languages.OriginalCodes, cfg.Languages.OriginalPrefixes),
		Target:   language.NewMatcher(cfg.Languages.TargetCodes, nil),
	})
}

func builderFromConfig(cfg *config.Config, thresholds syncplan.Thresholds) (*trackplan.Builder, error) {
	mode, err := trackplan.ParseMode(cfg.Batch.Direction)
	if err != nil {
		return nil, err
	}
	def, err := trackplan.ParseDefaultTrack(cfg.Batch.DefaultTrack)
	if err != nil {
		return nil, err
	}
	return trackplan.NewBuilder(classifierFromConfig(cfg), trackplan.Options{
		Mode:    mode,
		Default: def,
		Labels: trackplan.Labels{
			OriginalTag:   cfg.Languages.OriginalTag,
			TargetTag:     cfg.Languages.TargetTag,
			OriginalTitle: cfg.Languages.OriginalTitle,
			TargetTitle:   cfg.Languages.TargetTitle,
		},
		ForcePreprocess: cfg.Batch.ForcePreprocess,
		Thresholds:      thresholds,
	}), nil
}

func extractorFromConfig(cfg *config.Config) episode.Extractor {
	return episode.Extractor{Relaxed: cfg.Batch.RelaxExtract}
}
