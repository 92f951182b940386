// Package history records batch runs and their per-episode results in a
// SQLite database so earlier runs can be listed and inspected.
//
// Store implements batch.Recorder. Writes retry briefly on SQLITE_BUSY since
// two runs against different output directories may share one database.
package history
