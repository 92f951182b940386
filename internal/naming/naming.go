package naming

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moistari/rls"

	"dubmux/internal/episode"
)

// DefaultMultiTag replaces the single-language tag in output names.
const DefaultMultiTag = "MULTi"

var languageTokens = regexp.MustCompile(`(?i)\b(?:VOSTFR|VF)\b`)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(fileNameReplacer.Replace(strings.TrimSpace(name)))
}

// Stem returns the file name of path without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputName swaps VOSTFR/VF tokens in the base stem for tag. A stem without
// such a token gets the tag appended so the output never shadows the base.
func OutputName(basePath, tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultMultiTag
	}
	stem := Stem(basePath)
	renamed := languageTokens.ReplaceAllLiteralString(stem, tag)
	if renamed == stem {
		renamed = stem + "." + tag
	}
	return SanitizeFileName(renamed) + ".mkv"
}

// OutputPath joins OutputName with outDir.
func OutputPath(outDir, basePath, tag string) string {
	return filepath.Join(outDir, OutputName(basePath, tag))
}

// ExportPath names the standalone audio export: <base stem>.<TAG>.flac.
func ExportPath(exportDir, basePath, tag string) string {
	return filepath.Join(exportDir, SanitizeFileName(Stem(basePath)+"."+tag)+".flac")
}

// ArtifactPath names the temporary preprocessed audio of one episode.
func ArtifactPath(tmpDir string, key episode.Key) string {
	return filepath.Join(tmpDir, key.String()+"_preproc.flac")
}

// ContainerTitle renders "<Title> - <key>" from the release name of
// basePath, or "" when no title can be parsed.
func ContainerTitle(basePath string, key episode.Key) string {
	release := rls.ParseString(filepath.Base(basePath))
	title := strings.TrimSpace(release.Title)
	if title == "" {
		return ""
	}
	return title + " - " + key.String()
}
