// Package syncplan decides whether a donor audio track needs PAL-to-film
// speed correction and resolves the per-episode timing offset.
//
// Offsets come from an external table (CSV, TOML or YAML) keyed by episode.
// Positive offsets delay the donor audio, negative offsets trim its head.
// AudioFilters turns a Decision into the filter chain used by the
// preprocessing stage.
package syncplan
