package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dubmux/internal/config"
	"dubmux/internal/media/ffprobe"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Base and donor trees live under BaseDir(cfg) as "base" and "donor".
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "history.db")
	cfgVal.Batch.Workers = 2
	for _, dir := range []string{"base", "donor"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithHistory enables the run history database.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithStubbedBinaries writes ffmpeg and ffprobe stand-ins that print a
// version line and exit 0, and points the config at them.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range []string{"ffmpeg", "ffprobe"} {
			target := filepath.Join(binDir, name)
			script := []byte("#!/bin/sh\necho '" + name + " version 0.0-test'\nexit 0\n")
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Paths.FFmpegBinary = filepath.Join(binDir, "ffmpeg")
		b.cfg.Paths.FFprobeBinary = filepath.Join(binDir, "ffprobe")
	}
}

// WithProbeOutput replaces the ffprobe stand-in with one that answers every
// inspection with result. It implies WithStubbedBinaries.
func WithProbeOutput(result ffprobe.Result) ConfigOption {
	return func(b *configBuilder) {
		WithStubbedBinaries()(b)
		payload, err := json.Marshal(result)
		if err != nil {
			b.t.Fatalf("marshal probe result: %v", err)
		}
		jsonPath := filepath.Join(b.baseDir, "bin", "probe.json")
		if err := os.WriteFile(jsonPath, payload, 0o644); err != nil {
			b.t.Fatalf("write probe result: %v", err)
		}
		script := "#!/bin/sh\n" +
			"if [ \"$1\" = \"-version\" ]; then echo 'ffprobe version 0.0-test'; exit 0; fi\n" +
			"cat '" + jsonPath + "'\n"
		if err := os.WriteFile(b.cfg.Paths.FFprobeBinary, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write ffprobe stub: %v", err)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

// InputDirs returns the base and donor trees created by NewConfig.
func InputDirs(cfg *config.Config) (string, string) {
	root := BaseDir(cfg)
	return filepath.Join(root, "base"), filepath.Join(root, "donor")
}
