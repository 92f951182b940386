package deps

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "#!/bin/sh\nexit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" || results[0].Missing() {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || !results[1].Missing() {
		t.Fatalf("expected missing binary to be reported: %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[3].Detail)
	}
}

func TestProbeVersions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	dir := t.TempDir()
	good := writeStub(t, dir, "ffmpeg", "#!/bin/sh\necho 'ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023'\n")
	bad := writeStub(t, dir, "ffprobe", "#!/bin/sh\nexit 3\n")

	statuses := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: good},
		{Name: "FFprobe", Command: bad},
		{Name: "Missing", Command: "not-here"},
	})
	probed := ProbeVersions(context.Background(), statuses)

	if probed[0].Version != "6.1.1-3ubuntu5" {
		t.Fatalf("unexpected version %q", probed[0].Version)
	}
	if probed[1].Available || probed[1].Detail == "" {
		t.Fatalf("expected failing binary to be unavailable: %#v", probed[1])
	}
	if probed[2].Available {
		t.Fatal("missing binary must stay unavailable")
	}
	if !statuses[1].Available {
		t.Fatal("ProbeVersions must not mutate its input")
	}
}

func TestShortVersion(t *testing.T) {
	tests := map[string]string{
		"ffprobe version n7.0 Copyright": "n7.0",
		"custom build":                   "custom build",
	}
	for in, want := range tests {
		if got := shortVersion(in); got != want {
			t.Fatalf("shortVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
