// Package trackplan builds the backend-agnostic description of one output
// file: which side supplies the video, which audio streams are kept and in
// what order, which one plays by default, and where subtitles and
// attachments come from.
//
// A single Builder serves both directional modes. The output always carries
// the original-language audio first and the target-language audio second;
// the mode only decides which input owns which of them.
package trackplan
