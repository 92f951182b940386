// Package preflight provides readiness checks for the binaries and
// directories a batch run depends on.
//
// The run command calls RunAll before pairing so a missing ffprobe or an
// unwritable output tree fails fast instead of failing every episode. The
// check command prints the same results as a table.
package preflight
