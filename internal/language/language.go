package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
)

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2/T
	alt3    string // ISO 639-2/B when it differs
	display string
}

var languages = []entry{
	{"ja", "jpn", "", "Japanese"},
	{"fr", "fra", "fre", "French"},
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
}

var byCode = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*3)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[e.code3] = e
		if e.alt3 != "" {
			m[e.alt3] = e
		}
		m[strings.ToLower(e.display)] = e
	}
	return m
}()

var titleCaser = cases.Title(xlang.Und)

// Normalize lowercases and trims a raw tag, dropping embedded NUL bytes some
// muxers leave behind.
func Normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(tag, "\u0000", "")))
}

// ToISO3 returns the ISO 639-2/T code for a recognized tag, passes unknown
// three-letter codes through, and returns "und" otherwise.
func ToISO3(tag string) string {
	tag = Normalize(tag)
	if e, ok := byCode[tag]; ok {
		return e.code3
	}
	if len(tag) == 3 {
		return tag
	}
	return "und"
}

// DisplayName returns a human-readable name for tag. Unknown word forms are
// title-cased; unknown codes are upper-cased.
func DisplayName(tag string) string {
	tag = Normalize(tag)
	if tag == "" {
		return "Unknown"
	}
	if e, ok := byCode[tag]; ok {
		return e.display
	}
	if len(tag) > 3 {
		return titleCaser.String(tag)
	}
	return strings.ToUpper(tag)
}

// FromTags extracts the language from ffprobe stream tags.
func FromTags(tags map[string]string) string {
	for _, key := range []string{"language", "LANGUAGE", "Language", "lang", "LANG"} {
		if value := Normalize(tags[key]); value != "" {
			return value
		}
	}
	return ""
}

// Matcher reports whether a tag belongs to a heuristic language set.
type Matcher struct {
	codes    map[string]struct{}
	prefixes []string
}

// NewMatcher builds a matcher from exact codes and tag prefixes. Inputs are
// normalized; blanks are ignored.
func NewMatcher(codes, prefixes []string) Matcher {
	m := Matcher{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		if c := Normalize(code); c != "" {
			m.codes[c] = struct{}{}
		}
	}
	for _, prefix := range prefixes {
		if p := Normalize(prefix); p != "" {
			m.prefixes = append(m.prefixes, p)
		}
	}
	return m
}

// Match reports whether tag is in the set. An empty tag never matches.
func (m Matcher) Match(tag string) bool {
	tag = Normalize(tag)
	if tag == "" {
		return false
	}
	if _, ok := m.codes[tag]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}
	return false
}

