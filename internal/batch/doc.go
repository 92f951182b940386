// Package batch runs the per-episode pipeline for every paired episode
// under a bounded worker pool.
//
// Each episode is inspected, planned, optionally preprocessed into a
// temporary FLAC, combined into the output container and, on request,
// exported as a standalone audio file. Episode failures (including panics)
// become failed Results; they never cancel siblings. A run holds an
// advisory lock on the output directory and keeps its temporary artifacts
// under <out>/.dubmux-tmp/<run-id>/, removed when the run ends.
package batch
