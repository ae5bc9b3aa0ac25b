package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	writeFile(t, path, `include_paths:
  - include
  - /opt/sdk/include
defines:
  - NDEBUG
  - VERSION=3
max_errors: 20
log_level: debug
ignore:
  - "*_generated.h"
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if want := filepath.Join(dir, "include"); config.IncludePaths[0] != want {
		t.Errorf("IncludePaths[0] = %q, want %q", config.IncludePaths[0], want)
	}
	if config.IncludePaths[1] != "/opt/sdk/include" {
		t.Errorf("absolute include path changed to %q", config.IncludePaths[1])
	}
	if len(config.Defines) != 2 || config.Defines[1] != "VERSION=3" {
		t.Errorf("Defines = %v", config.Defines)
	}
	if config.MaxErrors != 20 {
		t.Errorf("MaxErrors = %d, want 20", config.MaxErrors)
	}
	// missing settings keep their defaults
	if config.MaxIncludeDepth != Default().MaxIncludeDepth {
		t.Errorf("MaxIncludeDepth = %d, want default", config.MaxIncludeDepth)
	}
	if level, err := config.Level(); err != nil || level != slog.LevelDebug {
		t.Errorf("Level() = %v, %v", level, err)
	}
	if !config.Ignored("src/proto_generated.h") || config.Ignored("src/proto.h") {
		t.Error("ignore patterns not applied")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "defines: [unclosed", "failed to parse config"},
		{"negative limit", "max_errors: -1", "max_errors must not be negative"},
		{"bad level", "log_level: loud", "unknown log_level"},
		{"empty define", "defines: ['=1']", "has no macro name"},
		{"bad pattern", "ignore: ['[']", "bad ignore pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "jobs: 2\n")
	nested := filepath.Join(root, "src", "lib")
	writeFile(t, filepath.Join(nested, "a.hpp"), "int a;\n")

	tests := []struct {
		name  string
		start string
	}{
		{"directory", nested},
		{"file", filepath.Join(nested, "a.hpp")},
		{"root", root},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tt.start)
			want := filepath.Join(root, FileName)
			if abs, err := filepath.Abs(want); err == nil {
				want = abs
			}
			if got != want {
				t.Errorf("Find(%q) = %q, want %q", tt.start, got, want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	config := Default()
	config.Defines = []string{"A"}
	config.Merge(Overrides{
		IncludePaths: []string{"inc"},
		Defines:      []string{"B=2"},
		LogLevel:     "info",
		Jobs:         8,
	})

	if len(config.Defines) != 2 || config.Defines[1] != "B=2" {
		t.Errorf("Defines = %v", config.Defines)
	}
	if len(config.IncludePaths) != 1 || config.IncludePaths[0] != "inc" {
		t.Errorf("IncludePaths = %v", config.IncludePaths)
	}
	if config.LogLevel != "info" || config.Jobs != 8 {
		t.Errorf("LogLevel = %q, Jobs = %d", config.LogLevel, config.Jobs)
	}
	if config.MaxErrors != Default().MaxErrors {
		t.Errorf("zero override changed MaxErrors to %d", config.MaxErrors)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	config := Default()
	config.Defines = []string{"FOO=1"}
	config.Ignore = []string{"*.inl"}
	if err := Write(path, config); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# "+FileName) {
		t.Errorf("missing header:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Defines) != 1 || loaded.Defines[0] != "FOO=1" || loaded.Jobs != config.Jobs {
		t.Errorf("round trip changed the config: %+v", loaded)
	}
}

func TestParserConfig(t *testing.T) {
	config := Default()
	config.Defines = []string{"X=1"}
	config.MaxErrors = 5

	pc := config.ParserConfig(slog.Default())
	if pc.MaxErrors != 5 || pc.Resolver == nil || len(pc.Preprocessor.Defines) != 1 {
		t.Errorf("unexpected parser config %+v", pc)
	}
}
