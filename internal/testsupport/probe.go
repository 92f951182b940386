package testsupport

import "dubmux/internal/media/ffprobe"

// ProbeBuilder assembles ffprobe results for tests. Streams receive
// consecutive absolute indices in the order they are added.
type ProbeBuilder struct {
	streams []ffprobe.Stream
}

// NewProbe starts an empty probe result.
func NewProbe() *ProbeBuilder {
	return &ProbeBuilder{}
}

func (b *ProbeBuilder) add(s ffprobe.Stream) *ProbeBuilder {
	idx := len(b.streams)
	s.Index = &idx
	b.streams = append(b.streams, s)
	return b
}

// Video adds a video stream with the given average frame rate ("" for none).
func (b *ProbeBuilder) Video(avgFrameRate string) *ProbeBuilder {
	return b.add(ffprobe.Stream{CodecType: ffprobe.CodecTypeVideo, CodecName: "h264", AvgFrameRate: avgFrameRate})
}

// CoverArt adds an attached-picture video stream.
func (b *ProbeBuilder) CoverArt() *ProbeBuilder {
	return b.add(ffprobe.Stream{
		CodecType:   ffprobe.CodecTypeVideo,
		CodecName:   "mjpeg",
		RFrameRate:  "90000/1",
		Disposition: map[string]int{"attached_pic": 1},
	})
}

// Audio adds an audio stream tagged with lang ("" leaves it untagged).
func (b *ProbeBuilder) Audio(lang string, channels int) *ProbeBuilder {
	return b.add(ffprobe.Stream{CodecType: ffprobe.CodecTypeAudio, CodecName: "aac", Channels: channels, Tags: tags(lang)})
}

// Subtitle adds a subtitle stream tagged with lang.
func (b *ProbeBuilder) Subtitle(lang string) *ProbeBuilder {
	return b.add(ffprobe.Stream{CodecType: ffprobe.CodecTypeSubtitle, CodecName: "ass", Tags: tags(lang)})
}

// Attachment adds a font attachment.
func (b *ProbeBuilder) Attachment() *ProbeBuilder {
	return b.add(ffprobe.Stream{CodecType: ffprobe.CodecTypeAttachment, CodecName: "ttf"})
}

// Result returns the assembled probe result.
func (b *ProbeBuilder) Result() ffprobe.Result {
	out := make([]ffprobe.Stream, len(b.streams))
	copy(out, b.streams)
	return ffprobe.Result{Streams: out}
}

func tags(lang string) map[string]string {
	if lang == "" {
		return nil
	}
	return map[string]string{"language": lang}
}
