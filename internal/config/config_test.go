package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Addr(); got != "0.0.0.0:5001" {
		t.Errorf("Addr() = %q, want 0.0.0.0:5001", got)
	}
	if !filepath.IsAbs(cfg.ModelPath) || filepath.Base(cfg.ModelPath) != "carbon_footprint_model.onnx" {
		t.Errorf("ModelPath = %q, want absolute path to carbon_footprint_model.onnx", cfg.ModelPath)
	}
	if cfg.CacheBytes != 0 || cfg.GRPCPort != 0 {
		t.Errorf("cache and grpc should be disabled by default, got %+v", cfg)
	}
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("CARBON_PORT", "6000")
	t.Setenv("CARBON_CACHE_MB", "4")
	t.Setenv("CARBON_CACHE_TTL", "90s")
	t.Setenv("CARBON_MODEL_PATH", "/srv/model.onnx")

	cfg, err := Load(newFlagSet(), []string{"-host", "127.0.0.1"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Addr(); got != "127.0.0.1:6000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:6000", got)
	}
	if cfg.CacheBytes != 4<<20 {
		t.Errorf("CacheBytes = %d, want %d", cfg.CacheBytes, 4<<20)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.CacheTTL)
	}
	if cfg.ModelPath != "/srv/model.onnx" {
		t.Errorf("ModelPath = %q, want /srv/model.onnx", cfg.ModelPath)
	}

	cfg, err = Load(newFlagSet(), []string{"-port", "7000"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("flag should override env, Port = %d", cfg.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"-port", "0"},
		{"-port", "70000"},
		{"-grpc-port", "5001"},
		{"-cache-mb", "-1"},
		{"-unknown"},
	} {
		if _, err := Load(newFlagSet(), args); err == nil {
			t.Errorf("Load(%v) expected error", args)
		}
	}
}

func TestProjectRoot(t *testing.T) {
	dir := t.TempDir()
	server := filepath.Join(dir, "cmd", "server")
	if err := os.MkdirAll(server, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(server); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})

	root, err := ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Errorf("ProjectRoot() = %q, want %q", got, want)
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("/app", "models/m.onnx"); got != "/app/models/m.onnx" {
		t.Errorf("Resolve relative = %q", got)
	}
	if got := Resolve("/app", "/abs/m.onnx"); got != "/abs/m.onnx" {
		t.Errorf("Resolve absolute = %q", got)
	}
	if got := Resolve("/app", ""); got != "" {
		t.Errorf("Resolve empty = %q", got)
	}
}
