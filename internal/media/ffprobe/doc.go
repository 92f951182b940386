// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no dubmux-specific dependencies.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: per-stream properties including tags, disposition, and the
//     frame-rate fields used for rate detection
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Parse: decodes an already captured JSON payload
package ffprobe
