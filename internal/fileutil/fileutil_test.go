package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.flac")
	dst := filepath.Join(dir, "nested", "dst.flac")

	content := []byte("fLaC audio")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
	if _, err := os.Stat(dst + ".part"); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}

func TestCopyVerifiedDetectsDamagedCopy(t *testing.T) {
	tests := []struct {
		name   string
		damage []byte
		want   string
	}{
		{name: "same size", damage: []byte("XXXX audio"), want: "hash mismatch"},
		{name: "truncated", damage: []byte("fLaC"), want: "size mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "src.flac")
			dst := filepath.Join(dir, "dst.flac")
			if err := os.WriteFile(src, []byte("fLaC audio"), 0o644); err != nil {
				t.Fatal(err)
			}
			orig := afterWrite
			afterWrite = func(part string) error { return os.WriteFile(part, tt.damage, 0o644) }
			t.Cleanup(func() { afterWrite = orig })

			err := CopyVerified(src, dst)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q error, got %v", tt.want, err)
			}
			if ok, _ := Exists(dst); ok {
				t.Fatal("damaged copy must not be renamed into place")
			}
			if ok, _ := Exists(dst + ".part"); ok {
				t.Fatal("partial file left behind")
			}
		})
	}
}

func TestCopyVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.flac")
	if err := CopyVerified(filepath.Join(dir, "absent"), dst); err == nil {
		t.Fatal("expected error")
	}
	if ok, _ := Exists(dst); ok {
		t.Fatal("destination must not be created")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if ok, err := Exists(path); ok || err != nil {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := Exists(path); !ok || err != nil {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}
}
