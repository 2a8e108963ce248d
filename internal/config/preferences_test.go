package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/muurk/ramload/internal/image"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is linux only")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg", "ramload") {
		t.Errorf("GetConfigDir() = %v", configDir)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("DefaultPath() should end with 'config.yaml', got: %v", path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	prefs, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if prefs.Stub.Host != "localhost" || prefs.Stub.Port != 4242 {
		t.Errorf("stub = %+v, want localhost:4242", prefs.Stub)
	}
	if prefs.Board != "stm32f4-discovery" {
		t.Errorf("Board = %q", prefs.Board)
	}
	if p, _ := prefs.ArchPolicy(); p != image.ArchLoad {
		t.Errorf("ArchPolicy = %v, want load", p)
	}
	if prefs.ValidateFirst {
		t.Error("ValidateFirst should default to false")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	prefs := Defaults()
	prefs.Stub.Port = 4343
	prefs.Board = "nucleo-f446re"
	prefs.ArchSpecificSegments = "reject"
	prefs.ValidateFirst = true

	if err := Save(path, prefs); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file was left behind")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *prefs {
		t.Errorf("loaded = %+v, want %+v", loaded, prefs)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nstub:\n  port: 5000\n"), 0600); err != nil {
		t.Fatal(err)
	}

	prefs, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if prefs.Stub.Host != "localhost" || prefs.Stub.Port != 5000 {
		t.Errorf("stub = %+v, want localhost:5000", prefs.Stub)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "stub: [", "failed to parse"},
		{"wrong version", "version: 2\n", "unsupported config version"},
		{"bad port", "stub:\n  port: 70000\n", "out of range"},
		{"bad policy", "arch_specific_segments: sometimes\n", "unknown architecture segment policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
