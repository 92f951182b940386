package episode

import (
	"regexp"
	"strings"
)

// Key identifies an episode inside one scan, e.g. "E07". Digits keep the
// padding found in the filename, so "E7" and "E07" are different keys.
type Key string

// String returns the key as rendered in logs and filenames.
func (k Key) String() string { return string(k) }

// Less orders keys by length first, then lexically, so E9 sorts before E10
// and E99 before E100.
func (k Key) Less(other Key) bool {
	if len(k) != len(other) {
		return len(k) < len(other)
	}
	return k < other
}

var (
	strictPattern  = regexp.MustCompile(`(?i)\bE(\d{2,3})\b`)
	relaxedPattern = regexp.MustCompile(`(?i)E(\d{2,3})(?:\D|$)`)
	keyPattern     = regexp.MustCompile(`^[Ee](\d{2,3})$`)
)

// Extractor turns filenames into episode keys.
//
// In strict mode the E## token must be bounded by word edges on both sides.
// Relaxed mode falls back to a match without the leading edge so compound
// tokens such as S01E01 resolve, at the cost of more false positives.
type Extractor struct {
	Relaxed bool
}

// Extract returns the episode key found in name, or false when none matches.
func (e Extractor) Extract(name string) (Key, bool) {
	if m := strictPattern.FindStringSubmatch(name); m != nil {
		return Key("E" + m[1]), true
	}
	if !e.Relaxed {
		return "", false
	}
	if m := relaxedPattern.FindStringSubmatch(name); m != nil {
		return Key("E" + m[1]), true
	}
	return "", false
}

// ParseKey validates a standalone key token such as "e07" and returns its
// normalized form. It is used for externally supplied tables.
func ParseKey(value string) (Key, bool) {
	m := keyPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", false
	}
	return Key("E" + m[1]), true
}
