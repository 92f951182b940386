package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. The first problem is
// returned, naming the offending key.
func (c *Config) Validate() error {
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateForRun adds the checks that only matter when processing episodes.
func (c *Config) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set (or pass --out-dir)")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 {
		return errors.New("batch.workers must be at least 1")
	}
	switch c.Batch.Direction {
	case "vf_to_vostfr", "vostfr_to_vf":
	default:
		return fmt.Errorf("batch.direction %q must be vf_to_vostfr or vostfr_to_vf", c.Batch.Direction)
	}
	switch c.Batch.DefaultTrack {
	case "original", "target":
	default:
		return fmt.Errorf("batch.default_track %q must be original or target", c.Batch.DefaultTrack)
	}
	if strings.ContainsAny(c.Batch.MultiTag, `/\:*?"<>|`) {
		return fmt.Errorf("batch.multi_tag %q contains characters not allowed in filenames", c.Batch.MultiTag)
	}
	if strings.ContainsAny(c.Paths.TempDirName, `/\`) {
		return fmt.Errorf("paths.temp_dir_name %q must be a single directory name", c.Paths.TempDirName)
	}
	return nil
}

func (c *Config) validateLanguages() error {
	l := c.Languages
	for _, code := range l.TargetCodes {
		if containsString(l.OriginalCodes, code) {
			return fmt.Errorf("languages: %q is listed as both original and target", code)
		}
	}
	if l.OriginalTag == l.TargetTag {
		return fmt.Errorf("languages.original_tag and languages.target_tag must differ (both %q)", l.OriginalTag)
	}
	return nil
}

func (c *Config) validateSync() error {
	s := c.Sync
	switch {
	case s.FilmRateNum <= 0 || s.FilmRateDen <= 0:
		return errors.New("sync.film_rate_num and sync.film_rate_den must be positive")
	case s.PALRate <= 0:
		return errors.New("sync.pal_rate must be positive")
	case s.Tolerance <= 0 || s.Tolerance >= 1:
		return errors.New("sync.tolerance must be between 0 and 1")
	case s.SpeedFactor < 0.5 || s.SpeedFactor > 2.0:
		return fmt.Errorf("sync.speed_factor %.5f must be within [0.5, 2.0]", s.SpeedFactor)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
