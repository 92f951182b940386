package trackplan

import (
	"errors"
	"fmt"

	"dubmux/internal/episode"
	"dubmux/internal/syncplan"
)

var (
	// ErrMissingOriginalAudio means no audio stream matched the original language.
	ErrMissingOriginalAudio = errors.New("no original-language audio stream")
	// ErrMissingTargetAudio means no audio stream matched the target language.
	ErrMissingTargetAudio = errors.New("no target-language audio stream")
	// ErrMissingVideo means the base input has no usable video stream.
	ErrMissingVideo = errors.New("no video stream in base input")
)

// Labels are the language tags and titles written on the two audio tracks.
type Labels struct {
	OriginalTag   string
	TargetTag     string
	OriginalTitle string
	TargetTitle   string
}

// DefaultLabels returns jpn/fra with the conventional VO/VF titles.
func DefaultLabels() Labels {
	return Labels{
		OriginalTag:   "jpn",
		TargetTag:     "fra",
		OriginalTitle: "VO (Japonais)",
		TargetTitle:   "VF",
	}
}

// AudioTrack is one planned output audio track. When Preprocessed is set the
// stream comes from the temporary artifact and StreamIndex names the donor
// stream it was rendered from.
type AudioTrack struct {
	Side         Side
	StreamIndex  int
	Preprocessed bool
	Language     string
	Title        string
	Default      bool
}

// Preprocess describes the donor audio rewrite that precedes the combine.
type Preprocess struct {
	StreamIndex int
	Channels    int
	Filters     []string
}

// Plan is the complete selection for one output file.
type Plan struct {
	Key  episode.Key
	Mode Mode

	// VideoIndex is the absolute index of the base video stream.
	VideoIndex int
	// Audio always holds the original-language track then the target one.
	Audio []AudioTrack

	SubtitleSource  Side
	PassSubtitles   bool
	PassAttachments bool
	// DefaultSubtitle is a position in the passed-through subtitle order, or -1.
	DefaultSubtitle int

	Decision   syncplan.Decision
	Preprocess *Preprocess
}

// DonorTrack returns the audio track supplied by the donor.
func (p Plan) DonorTrack() AudioTrack {
	for _, track := range p.Audio {
		if track.Side == Donor {
			return track
		}
	}
	return AudioTrack{StreamIndex: -1}
}

// DefaultAudio returns the position of the default audio track.
func (p Plan) DefaultAudio() int {
	for i, track := range p.Audio {
		if track.Default {
			return i
		}
	}
	return -1
}

// UsesDonorInput reports whether the combine must open the original donor
// file, which is the case unless everything taken from it is preprocessed.
func (p Plan) UsesDonorInput() bool {
	if p.SubtitleSource == Donor && (p.PassSubtitles || p.PassAttachments) {
		return true
	}
	for _, track := range p.Audio {
		if track.Side == Donor && !track.Preprocessed {
			return true
		}
	}
	return false
}

// DonorCarriesTarget reports whether the donor supplies the target language.
func (p Plan) DonorCarriesTarget() bool {
	return p.Mode == ModeTargetIntoOriginal
}

func (p Plan) String() string {
	if len(p.Audio) < 2 {
		return p.Key.String()
	}
	return fmt.Sprintf("%s video=%d original=%s:%d target=%s:%d default_sub=%d speedfix=%v offset_ms=%d",
		p.Key, p.VideoIndex,
		p.Audio[0].Side, p.Audio[0].StreamIndex,
		p.Audio[1].Side, p.Audio[1].StreamIndex,
		p.DefaultSubtitle, p.Decision.SpeedCorrection, p.Decision.OffsetMS)
}
