package yarel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	c := Config{}
	c.fillDefaults()
	if c.HeapThreshold <= 0 || c.HeapGrowth <= 1 || c.FramesMax <= 0 || c.StackMax <= 0 {
		t.Errorf("defaults not filled: %+v", c)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yarel.yml")
	data := "heap_threshold: 4096\nheap_growth: 3\nframes_max: 32\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HeapThreshold != 4096 || cfg.HeapGrowth != 3 || cfg.FramesMax != 32 {
		t.Errorf("wrong config: %+v", cfg)
	}
	if cfg.StackMax <= 0 {
		t.Error("missing key did not take its default")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yml")
	os.WriteFile(path, []byte("unknown_knob: true\n"), 0o644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for unknown keys")
	}
}

// TestConfigLimits tests that the frame bound from a config is honored.
func TestConfigLimits(t *testing.T) {
	vm := NewVM(&Config{FramesMax: 16})
	_, err := vm.DoString(`
fn recurse(n) {
    return recurse(n + 1);
}
recurse(0);
`, "test")
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != StackOverflow {
		t.Fatalf("expected StackOverflow, got %v", err)
	}
}
