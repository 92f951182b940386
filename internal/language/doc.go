// Package language normalizes stream language tags and matches them against
// the heuristic code sets used to pick original-language and target-language
// tracks.
//
// Container metadata is frequently incomplete: tags can be ISO 639-1, either
// ISO 639-2 variant, a full English word, or a vendor prefix such as "jp".
// Matcher accepts any of those forms so selection stays deterministic.
package language
