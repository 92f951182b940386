// Package main hosts the dubmux CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, applies per-run flag
// overrides, builds the logger, and hands the work to the internal packages:
// run drives the batch scheduler, pairs and probe expose the pairing and
// classification steps on their own, check runs the preflight, and history
// reads the optional run database.
package main
