package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	os.WriteFile(path, []byte("hello world"), 0644)

	sum, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if sum != want {
		t.Errorf("FileHash = %s, want %s", sum, want)
	}
}

func TestBuildAndWrite(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub"), 0755)
	os.WriteFile(filepath.Join(dir, "b.bin"), []byte("bb"), 0644)
	os.WriteFile(filepath.Join(dir, "sub", "a.bin"), []byte("a"), 0644)

	entries, err := Build(zerolog.Nop(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != "b.bin" || entries[1].Path != "sub/a.bin" {
		t.Errorf("unexpected order: %+v", entries)
	}
	if TotalSize(entries) != 3 {
		t.Errorf("TotalSize = %d, want 3", TotalSize(entries))
	}

	out := filepath.Join(t.TempDir(), DefaultOutput(dir))
	if err := Write(out, entries); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, _ := os.ReadFile(out)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || lines[0] != "file_path,file_hash,file_size" {
		t.Errorf("unexpected manifest:\n%s", data)
	}
	if !strings.HasSuffix(lines[2], ",1") || !strings.HasPrefix(lines[2], "sub/a.bin,") {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build(zerolog.Nop(), t.TempDir()); err == nil {
		t.Error("expected error for empty directory")
	}
	if _, err := Build(zerolog.Nop(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDefaultOutput(t *testing.T) {
	if got := DefaultOutput("/srv/data/"); got != "data_manifest.csv" {
		t.Errorf("DefaultOutput = %s", got)
	}
}
