package main

import (
	"os"
	"path/filepath"
	"testing"

	"dubmux/internal/episode"
	"dubmux/internal/syncplan"
	"dubmux/internal/testsupport"
)

func dualAudioProbe() testsupport.ConfigOption {
	return testsupport.WithProbeOutput(
		testsupport.NewProbe().
			Video("24000/1001").
			Audio("jpn", 2).
			Audio("fre", 6).
			Subtitle("fre").
			Result(),
	)
}

func layoutEpisodes(t *testing.T, env *cliTestEnv, keys ...string) {
	t.Helper()
	for _, key := range keys {
		testsupport.WriteFile(t, filepath.Join(env.baseDir, "Show - "+key+" VOSTFR.mkv"), 1)
		testsupport.WriteFile(t, filepath.Join(env.donorDir, "Show - "+key+" VF.mkv"), 1)
	}
}

func TestRunDryRunPrintsCommands(t *testing.T) {
	env := setupCLITestEnv(t, dualAudioProbe())
	layoutEpisodes(t, env, "E01", "E02")

	out, _, err := runCLI(t, []string{
		"run", "--base-dir", env.baseDir, "--donor-dir", env.donorDir, "--dry-run",
	}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v\n%s", err, out)
	}
	requireContains(t, out, "Commands (dry run)")
	requireContains(t, out, "# E01")
	requireContains(t, out, "# E02")
	requireContains(t, out, "-map_metadata")
	requireContains(t, out, "Show - E01 MULTi.mkv")
	requireContains(t, out, "2 succeeded, 0 failed")

	if _, err := os.Stat(env.cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("dry run should not create the output directory, stat err=%v", err)
	}
}

func TestRunFailsWhenNothingPairs(t *testing.T) {
	env := setupCLITestEnv(t, dualAudioProbe())
	testsupport.WriteFile(t, filepath.Join(env.baseDir, "Show - E01 VOSTFR.mkv"), 1)
	testsupport.WriteFile(t, filepath.Join(env.donorDir, "Show - E02 VF.mkv"), 1)

	_, _, err := runCLI(t, []string{
		"run", "--base-dir", env.baseDir, "--donor-dir", env.donorDir, "--dry-run",
	}, env.configPath)
	if err == nil {
		t.Fatal("expected an error when no episode pairs")
	}
	requireContains(t, err.Error(), env.baseDir)
}

func TestRunReportsEpisodeFailures(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithProbeOutput(
		testsupport.NewProbe().Video("24000/1001").Audio("jpn", 2).Result(),
	))
	layoutEpisodes(t, env, "E01")

	out, _, err := runCLI(t, []string{
		"run", "--base-dir", env.baseDir, "--donor-dir", env.donorDir, "--dry-run",
	}, env.configPath)
	if err == nil {
		t.Fatal("expected a non-zero exit when an episode fails")
	}
	requireContains(t, out, "FAIL")
	requireContains(t, out, "0 succeeded, 1 failed")
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	env := setupCLITestEnv(t, dualAudioProbe())
	tests := []struct {
		name string
		args []string
	}{
		{"workers", []string{"--workers", "0"}},
		{"direction", []string{"--direction", "sideways"}},
		{"default track", []string{"--default-track", "both"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"run", "--base-dir", env.baseDir, "--donor-dir", env.donorDir, "--dry-run"}, tt.args...)
			if _, _, err := runCLI(t, args, env.configPath); err == nil {
				t.Fatalf("expected %v to be rejected", tt.args)
			}
		})
	}
}

func TestUnpairedOffsets(t *testing.T) {
	offsets := syncplan.Offsets{"E10": 40, "E01": 250, "E02": -120}
	pairs := []episode.Pair{{Key: "E01"}, {Key: "E03"}}
	stale := unpairedOffsets(offsets, pairs)
	if len(stale) != 2 || stale[0] != "E02" || stale[1] != "E10" {
		t.Fatalf("unexpected stale keys %v", stale)
	}
	if got := unpairedOffsets(nil, pairs); len(got) != 0 {
		t.Fatalf("expected no stale keys without a table, got %v", got)
	}
}

func TestRunWarnsAboutUnusedOffsetRows(t *testing.T) {
	env := setupCLITestEnv(t, dualAudioProbe())
	layoutEpisodes(t, env, "E01")
	offsetsPath := filepath.Join(t.TempDir(), "offsets.csv")
	if err := os.WriteFile(offsetsPath, []byte("E01,250\nE09,-80\n"), 0o644); err != nil {
		t.Fatalf("write offsets: %v", err)
	}

	out, errOut, err := runCLI(t, []string{
		"run", "--base-dir", env.baseDir, "--donor-dir", env.donorDir, "--dry-run", "--offsets", offsetsPath,
	}, env.configPath)
	if err != nil {
		t.Fatalf("run --dry-run: %v\n%s", err, errOut)
	}
	requireContains(t, errOut, "offset rows match no paired episode")
	requireContains(t, errOut, "E09")
	requireContains(t, out, "1 succeeded, 0 failed")
}
