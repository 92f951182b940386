package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"dubmux/internal/language"
)

// Normalize expands paths, trims strings, lowercases language codes and
// fills blanks with defaults. Load calls it; the CLI calls it again after
// applying flag overrides.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBatch(); err != nil {
		return err
	}
	c.normalizeLanguages()
	if err := c.normalizeExportHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		if value, ok := os.LookupEnv("DUBMUX_OUTPUT_DIR"); ok {
			c.Paths.OutputDir = value
		}
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.TempDirName = strings.TrimSpace(c.Paths.TempDirName)
	if c.Paths.TempDirName == "" {
		c.Paths.TempDirName = defaultTempDirName
	}
	c.Paths.FFmpegBinary = strings.TrimSpace(c.Paths.FFmpegBinary)
	if c.Paths.FFmpegBinary == "" {
		c.Paths.FFmpegBinary = "ffmpeg"
	}
	c.Paths.FFprobeBinary = strings.TrimSpace(c.Paths.FFprobeBinary)
	if c.Paths.FFprobeBinary == "" {
		c.Paths.FFprobeBinary = "ffprobe"
	}
	return nil
}

func (c *Config) normalizeBatch() error {
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = runtime.NumCPU()
	}
	c.Batch.Direction = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Batch.Direction)), "-", "_")
	if c.Batch.Direction == "" {
		c.Batch.Direction = defaultDirection
	}
	switch track := strings.ToLower(strings.TrimSpace(c.Batch.DefaultTrack)); track {
	case "", "vo":
		c.Batch.DefaultTrack = defaultDefaultTrack
	case "vf":
		c.Batch.DefaultTrack = "target"
	default:
		c.Batch.DefaultTrack = track
	}
	c.Batch.MultiTag = strings.TrimSpace(c.Batch.MultiTag)
	if c.Batch.MultiTag == "" {
		c.Batch.MultiTag = defaultMultiTag
	}
	var err error
	if c.Batch.OffsetsFile, err = expandPath(strings.TrimSpace(c.Batch.OffsetsFile)); err != nil {
		return fmt.Errorf("batch.offsets_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLanguages() {
	defaults := Default().Languages
	l := &c.Languages
	l.OriginalCodes = normalizeCodes(l.OriginalCodes)
	l.OriginalPrefixes = normalizeCodes(l.OriginalPrefixes)
	l.TargetCodes = normalizeCodes(l.TargetCodes)
	if len(l.OriginalCodes) == 0 && len(l.OriginalPrefixes) == 0 {
		l.OriginalCodes = defaults.OriginalCodes
		l.OriginalPrefixes = defaults.OriginalPrefixes
	}
	if len(l.TargetCodes) == 0 {
		l.TargetCodes = defaults.TargetCodes
	}
	l.OriginalTag = metadataTag(l.OriginalTag, defaults.OriginalTag)
	l.TargetTag = metadataTag(l.TargetTag, defaults.TargetTag)
	l.OriginalTitle = strings.TrimSpace(l.OriginalTitle)
	if l.OriginalTitle == "" {
		l.OriginalTitle = defaults.OriginalTitle
	}
	l.TargetTitle = strings.TrimSpace(l.TargetTitle)
	if l.TargetTitle == "" {
		l.TargetTitle = defaults.TargetTitle
	}
}

// metadataTag rewrites recognized tags to their three-letter code, so "ja"
// and "japanese" are written as "jpn". Unrecognized tags pass through.
func metadataTag(value, fallback string) string {
	tag := strings.ToLower(strings.TrimSpace(value))
	if tag == "" {
		return fallback
	}
	if code := language.ToISO3(tag); code != "und" {
		return code
	}
	return tag
}

func normalizeCodes(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		code := strings.ToLower(strings.TrimSpace(v))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func (c *Config) normalizeExportHistory() error {
	var err error
	if c.Export.Dir, err = expandPath(strings.TrimSpace(c.Export.Dir)); err != nil {
		return fmt.Errorf("export.dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.History.Limit <= 0 {
		c.History.Limit = defaultHistoryLimit
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "pretty", "text":
		format = "console"
	case "json":
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	if level == "warning" {
		level = "warn"
	}
	c.Logging.Level = level
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
