// Package streams classifies backend stream metadata into an immutable Set
// and answers the language/role queries used to build track plans.
//
// Indices stored in a Set are always the container-wide absolute indices the
// backend reported. Relative per-type positions are never stored; callers that
// need one (for example the default-subtitle position after passthrough) derive
// it with an explicit lookup.
package streams
