package trackplan

import (
	"fmt"
	"strings"
)

// Mode selects which release owns the output container.
type Mode int

const (
	// ModeTargetIntoOriginal keeps the original-language release as base and
	// takes the target-language audio from the donor.
	ModeTargetIntoOriginal Mode = iota
	// ModeOriginalIntoTarget keeps the target-language release as base and
	// takes the original-language audio, subtitles and fonts from the donor.
	ModeOriginalIntoTarget
)

func (m Mode) String() string {
	switch m {
	case ModeTargetIntoOriginal:
		return "vf_to_vostfr"
	case ModeOriginalIntoTarget:
		return "vostfr_to_vf"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the canonical names plus a few shorthands.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "vf_to_vostfr", "vf-to-vostfr", "target_into_original":
		return ModeTargetIntoOriginal, nil
	case "vostfr_to_vf", "vostfr-to-vf", "original_into_target":
		return ModeOriginalIntoTarget, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want vf_to_vostfr or vostfr_to_vf)", value)
	}
}

// DefaultTrack selects the audio track flagged as default.
type DefaultTrack int

const (
	DefaultOriginal DefaultTrack = iota
	DefaultTarget
)

func (d DefaultTrack) String() string {
	if d == DefaultTarget {
		return "target"
	}
	return "original"
}

// ParseDefaultTrack accepts "original"/"vo" and "target"/"vf".
func ParseDefaultTrack(value string) (DefaultTrack, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "original", "vo":
		return DefaultOriginal, nil
	case "target", "vf":
		return DefaultTarget, nil
	default:
		return 0, fmt.Errorf("unknown default track %q (want original or target)", value)
	}
}

// Side identifies one of the two inputs of an episode.
type Side int

const (
	Base Side = iota
	Donor
)

func (s Side) String() string {
	if s == Donor {
		return "donor"
	}
	return "base"
}
