// Package ffmpeg is the media backend: it inspects inputs with ffprobe and
// renders track plans into ffmpeg invocations.
//
// Argument construction is pure (PreprocessArgs, CombineArgs, ExtractArgs)
// so plans can be checked without a binary. Backend executes them through
// an injectable runner and supports a dry-run mode that only logs the
// shell-quoted command line.
package ffmpeg
