package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dubmux/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DUBMUX_OUTPUT_DIR", "~/multi")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "multi"); cfg.Paths.OutputDir != want {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "dubmux", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "dubmux", "history.db"); cfg.History.Path != want {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, want)
	}
	if cfg.Batch.Direction != "vf_to_vostfr" || cfg.Batch.DefaultTrack != "original" {
		t.Fatalf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if cfg.Batch.Workers < 1 {
		t.Fatalf("expected at least one worker, got %d", cfg.Batch.Workers)
	}
	if cfg.Sync.SpeedFactor != 0.95904 {
		t.Fatalf("unexpected speed factor %v", cfg.Sync.SpeedFactor)
	}
	if cfg.LogFilePath() != filepath.Join(cfg.Paths.LogDir, "dubmux.log") {
		t.Fatalf("unexpected log file path %q", cfg.LogFilePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dubmux.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Batch struct {
			Workers      int    `toml:"workers"`
			Direction    string `toml:"direction"`
			DefaultTrack string `toml:"default_track"`
		} `toml:"batch"`
		Languages struct {
			TargetCodes []string `toml:"target_codes"`
		} `toml:"languages"`
		Logging struct {
			Level string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Batch.Workers = 3
	custom.Batch.Direction = "VOSTFR-to-VF"
	custom.Batch.DefaultTrack = "VF"
	custom.Languages.TargetCodes = []string{" DEU ", "ger", "deu"}
	custom.Logging.Level = "WARNING"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Batch.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Batch.Direction != "vostfr_to_vf" {
		t.Fatalf("expected normalized direction, got %q", cfg.Batch.Direction)
	}
	if cfg.Batch.DefaultTrack != "target" {
		t.Fatalf("expected vf to map to target, got %q", cfg.Batch.DefaultTrack)
	}
	if got := strings.Join(cfg.Languages.TargetCodes, ","); got != "deu,ger" {
		t.Fatalf("unexpected target codes %q", got)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected warn level, got %q", cfg.Logging.Level)
	}
	if cfg.Languages.OriginalTag != "jpn" {
		t.Fatalf("expected untouched defaults to survive, got %q", cfg.Languages.OriginalTag)
	}
}

func TestNormalizeCanonicalizesMetadataTags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		original     string
		target       string
		wantOriginal string
		wantTarget   string
	}{
		{"ja", "fr", "jpn", "fra"},
		{" Japanese ", "FRE", "jpn", "fra"},
		{"", "", "jpn", "fra"},
		{"kor", "x-custom", "kor", "x-custom"},
	}
	for _, tt := range tests {
		t.Run(tt.original+"/"+tt.target, func(t *testing.T) {
			cfg := config.Default()
			cfg.Languages.OriginalTag = tt.original
			cfg.Languages.TargetTag = tt.target
			if err := cfg.Normalize(); err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if cfg.Languages.OriginalTag != tt.wantOriginal || cfg.Languages.TargetTag != tt.wantTarget {
				t.Fatalf("got %q/%q, want %q/%q", cfg.Languages.OriginalTag, cfg.Languages.TargetTag, tt.wantOriginal, tt.wantTarget)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "dubmux.toml")
	if err := os.WriteFile(configPath, []byte("[batch]\nworkerz = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "speed_factor") {
		t.Fatalf("sample config missing sync section: %s", contents)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if !strings.HasSuffix(cfg.Paths.OutputDir, filepath.Join("Videos", "multi")) {
		t.Fatalf("unexpected sample output dir %q", cfg.Paths.OutputDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		key    string
	}{
		{"workers", func(c *config.Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"direction", func(c *config.Config) { c.Batch.Direction = "sideways" }, "batch.direction"},
		{"default track", func(c *config.Config) { c.Batch.DefaultTrack = "both" }, "batch.default_track"},
		{"multi tag", func(c *config.Config) { c.Batch.MultiTag = "MU/LTI" }, "batch.multi_tag"},
		{"temp dir", func(c *config.Config) { c.Paths.TempDirName = "a/b" }, "paths.temp_dir_name"},
		{"overlapping languages", func(c *config.Config) { c.Languages.TargetCodes = []string{"jpn"} }, "languages"},
		{"same tags", func(c *config.Config) { c.Languages.TargetTag = "jpn" }, "languages.original_tag"},
		{"film rate", func(c *config.Config) { c.Sync.FilmRateDen = 0 }, "sync.film_rate"},
		{"pal rate", func(c *config.Config) { c.Sync.PALRate = 0 }, "sync.pal_rate"},
		{"tolerance", func(c *config.Config) { c.Sync.Tolerance = 1.5 }, "sync.tolerance"},
		{"speed factor", func(c *config.Config) { c.Sync.SpeedFactor = 3 }, "sync.speed_factor"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Fatalf("error %q does not name %s", err, tt.key)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateForRunRequiresOutputDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = ""
	if err := cfg.ValidateForRun(); err == nil || !strings.Contains(err.Error(), "output_dir") {
		t.Fatalf("expected output_dir error, got %v", err)
	}
	cfg.Paths.OutputDir = t.TempDir()
	if err := cfg.ValidateForRun(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
