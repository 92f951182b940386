package streams

import (
	"slices"

	"dubmux/internal/language"
	"dubmux/internal/media/ffprobe"
)

// Languages holds the heuristic tag sets used for selection.
type Languages struct {
	Original language.Matcher
	Target   language.Matcher
}

// DefaultLanguages returns the Japanese-original / French-target sets.
func DefaultLanguages() Languages {
	return Languages{
		Original: language.NewMatcher([]string{"jpn", "ja", "japanese"}, []string{"jp"}),
		Target:   language.NewMatcher([]string{"fra", "fre", "fr"}, nil),
	}
}

// Set is an immutable snapshot of one probed file.
type Set struct {
	video        []int
	primaryVideo int
	audio        []int
	subtitles    []int
	attachments  []int

	audioLangs    map[int]string
	audioChannels map[int]int
	subtitleLangs map[int]string

	rate FrameRate
}

// Classify converts ffprobe streams into a Set. Streams without an index are
// skipped. The frame rate comes from the first non-cover-art video stream
// that yields one.
func Classify(result ffprobe.Result) Set {
	set := Set{
		primaryVideo:  -1,
		audioLangs:    make(map[int]string),
		audioChannels: make(map[int]int),
		subtitleLangs: make(map[int]string),
	}
	for _, st := range result.Streams {
		if !st.HasIndex() {
			continue
		}
		idx := st.AbsoluteIndex()
		lang := language.FromTags(st.Tags)
		switch st.CodecType {
		case ffprobe.CodecTypeVideo:
			set.video = append(set.video, idx)
			if st.IsAttachedPicture() {
				continue
			}
			if set.primaryVideo < 0 {
				set.primaryVideo = idx
			}
			if !set.rate.Known() {
				set.rate = rateFromStream(st)
			}
		case ffprobe.CodecTypeAudio:
			set.audio = append(set.audio, idx)
			if lang != "" {
				set.audioLangs[idx] = lang
			}
			if st.Channels > 0 {
				set.audioChannels[idx] = st.Channels
			}
		case ffprobe.CodecTypeSubtitle:
			set.subtitles = append(set.subtitles, idx)
			if lang != "" {
				set.subtitleLangs[idx] = lang
			}
		case ffprobe.CodecTypeAttachment:
			set.attachments = append(set.attachments, idx)
		}
	}
	return set
}

// VideoIndices returns the absolute indices of all video streams.
func (s Set) VideoIndices() []int { return slices.Clone(s.video) }

// PrimaryVideo returns the absolute index of the first video stream that is
// not cover art.
func (s Set) PrimaryVideo() (int, bool) { return s.primaryVideo, s.primaryVideo >= 0 }

// AudioIndices returns the absolute indices of all audio streams in order.
func (s Set) AudioIndices() []int { return slices.Clone(s.audio) }

// SubtitleIndices returns the absolute indices of all subtitle streams in order.
func (s Set) SubtitleIndices() []int { return slices.Clone(s.subtitles) }

// AttachmentIndices returns the absolute indices of all attachment streams.
func (s Set) AttachmentIndices() []int { return slices.Clone(s.attachments) }

// HasSubtitles reports whether any subtitle stream exists.
func (s Set) HasSubtitles() bool { return len(s.subtitles) > 0 }

// HasAttachments reports whether any attachment stream exists.
func (s Set) HasAttachments() bool { return len(s.attachments) > 0 }

// AudioLanguage returns the lowercase tag of an audio stream, or "".
func (s Set) AudioLanguage(idx int) string { return s.audioLangs[idx] }

// SubtitleLanguage returns the lowercase tag of a subtitle stream, or "".
func (s Set) SubtitleLanguage(idx int) string { return s.subtitleLangs[idx] }

// AudioChannels returns the channel count of an audio stream, or 0 when unknown.
func (s Set) AudioChannels(idx int) int { return s.audioChannels[idx] }

// FrameRate returns the detected video frame rate.
func (s Set) FrameRate() FrameRate { return s.rate }

// FirstAudio returns the first audio stream whose tag matches m.
func (s Set) FirstAudio(m language.Matcher) (int, bool) {
	for _, idx := range s.audio {
		if m.Match(s.audioLangs[idx]) {
			return idx, true
		}
	}
	return -1, false
}

// FirstSubtitle returns the first subtitle stream whose tag matches m.
func (s Set) FirstSubtitle(m language.Matcher) (int, bool) {
	for _, idx := range s.subtitles {
		if m.Match(s.subtitleLangs[idx]) {
			return idx, true
		}
	}
	return -1, false
}

// SubtitlePosition maps an absolute subtitle index to its position among the
// file's subtitle streams, which is the ordering preserved by passthrough.
func (s Set) SubtitlePosition(absolute int) (int, bool) {
	pos := slices.Index(s.subtitles, absolute)
	return pos, pos >= 0
}

// Classifier applies the language heuristics to classified sets.
type Classifier struct {
	langs Languages
}

// NewClassifier returns a classifier bound to langs.
func NewClassifier(langs Languages) *Classifier {
	return &Classifier{langs: langs}
}

// OriginalAudio returns the first original-language audio stream.
func (c *Classifier) OriginalAudio(s Set) (int, bool) {
	return s.FirstAudio(c.langs.Original)
}

// TargetAudio returns the first target-language audio stream.
func (c *Classifier) TargetAudio(s Set) (int, bool) {
	return s.FirstAudio(c.langs.Target)
}

// TargetSubtitle returns the first target-language subtitle stream.
func (c *Classifier) TargetSubtitle(s Set) (int, bool) {
	return s.FirstSubtitle(c.langs.Target)
}
