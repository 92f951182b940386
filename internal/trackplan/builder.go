package trackplan

import (
	"fmt"

	"dubmux/internal/episode"
	"dubmux/internal/streams"
	"dubmux/internal/syncplan"
)

// Options configure a Builder.
type Options struct {
	Mode            Mode
	Default         DefaultTrack
	Labels          Labels
	ForcePreprocess bool
	Thresholds      syncplan.Thresholds
}

// Builder turns a pair of classified inputs into a Plan.
type Builder struct {
	classifier *streams.Classifier
	opts       Options
}

// NewBuilder returns a builder bound to classifier and opts.
func NewBuilder(classifier *streams.Classifier, opts Options) *Builder {
	return &Builder{classifier: classifier, opts: opts}
}

// Mode returns the directional mode the builder plans for.
func (b *Builder) Mode() Mode { return b.opts.Mode }

// Build plans one episode. Missing original or target audio and a base
// without video are terminal for the episode.
func (b *Builder) Build(key episode.Key, base, donor streams.Set, decision syncplan.Decision) (Plan, error) {
	video, ok := base.PrimaryVideo()
	if !ok {
		return Plan{}, ErrMissingVideo
	}

	// originalSet carries the original-language audio plus subtitles and
	// fonts; targetSet carries the target-language audio.
	originalSide, targetSide := Base, Donor
	originalSet, targetSet := base, donor
	if b.opts.Mode == ModeOriginalIntoTarget {
		originalSide, targetSide = Donor, Base
		originalSet, targetSet = donor, base
	}

	originalIdx, ok := b.classifier.OriginalAudio(originalSet)
	if !ok {
		return Plan{}, fmt.Errorf("%s input: %w", originalSide, ErrMissingOriginalAudio)
	}
	targetIdx, ok := b.classifier.TargetAudio(targetSet)
	if !ok {
		return Plan{}, fmt.Errorf("%s input: %w", targetSide, ErrMissingTargetAudio)
	}

	labels := b.opts.Labels
	original := AudioTrack{
		Side:        originalSide,
		StreamIndex: originalIdx,
		Language:    labels.OriginalTag,
		Title:       labels.OriginalTitle,
		Default:     b.opts.Default == DefaultOriginal,
	}
	target := AudioTrack{
		Side:        targetSide,
		StreamIndex: targetIdx,
		Language:    labels.TargetTag,
		Title:       labels.TargetTitle,
		Default:     b.opts.Default == DefaultTarget,
	}

	plan := Plan{
		Key:             key,
		Mode:            b.opts.Mode,
		VideoIndex:      video,
		Audio:           []AudioTrack{original, target},
		SubtitleSource:  originalSide,
		PassSubtitles:   originalSet.HasSubtitles(),
		PassAttachments: originalSet.HasAttachments(),
		DefaultSubtitle: -1,
		Decision:        decision,
	}

	if sub, ok := b.classifier.TargetSubtitle(originalSet); ok {
		if pos, ok := originalSet.SubtitlePosition(sub); ok {
			plan.DefaultSubtitle = pos
		}
	}

	if decision.NeedsPreprocess() || b.opts.ForcePreprocess {
		donorTrack := &plan.Audio[1]
		if originalSide == Donor {
			donorTrack = &plan.Audio[0]
		}
		channels := donor.AudioChannels(donorTrack.StreamIndex)
		plan.Preprocess = &Preprocess{
			StreamIndex: donorTrack.StreamIndex,
			Channels:    channels,
			Filters:     syncplan.AudioFilters(decision, channels, b.opts.Thresholds),
		}
		donorTrack.Preprocessed = true
	}
	return plan, nil
}
