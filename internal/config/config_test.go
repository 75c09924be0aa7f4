package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("Load(missing) = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverlaysPresentFields(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[vm]
max_frames = 64
gc_threshold = 1024

[compiler]
optimize_constants = false
`
	path := filepath.Join(dir, "pyvm.toml")
	if err := os.WriteFile(path, []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VM.MaxFrames != 64 {
		t.Errorf("VM.MaxFrames = %d, want 64", cfg.VM.MaxFrames)
	}
	if cfg.VM.GCThreshold != 1024 {
		t.Errorf("VM.GCThreshold = %d, want 1024", cfg.VM.GCThreshold)
	}
	if cfg.Compiler.OptimizeConstants {
		t.Errorf("Compiler.OptimizeConstants = true, want false")
	}
	// MaxRegisters was not present in the file, so it keeps its default.
	if cfg.VM.MaxRegisters != Default().VM.MaxRegisters {
		t.Errorf("VM.MaxRegisters = %d, want default %d", cfg.VM.MaxRegisters, Default().VM.MaxRegisters)
	}
}

func TestLoadFromDirJoinsFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pyvm.toml"), []byte("[vm]\nmax_frames = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if cfg.VM.MaxFrames != 7 {
		t.Errorf("VM.MaxFrames = %d, want 7", cfg.VM.MaxFrames)
	}
}
