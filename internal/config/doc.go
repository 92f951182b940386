// Package config loads, normalizes, and validates dubmux configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML files, and honours the DUBMUX_OUTPUT_DIR environment fallback.
// The Config type gathers every knob the batch and CLI need so that language
// sets, rate thresholds and output settings are resolved in one pass.
//
// Command-line flags override file values for a single run; the CLI applies
// them on top of the loaded Config before validating again.
package config
