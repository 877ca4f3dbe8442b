package yarel

import (
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config carries the VM's tuning knobs. The zero value selects the
// defaults, so hosts set only what they care about.
type Config struct {
	// HeapThreshold is the allocation volume, in bytes, that triggers the
	// first collection cycle.
	HeapThreshold int `yaml:"heap_threshold"`
	// HeapGrowth scales the threshold after each cycle.
	HeapGrowth float64 `yaml:"heap_growth"`
	// FramesMax bounds the call-frame stack of each fiber.
	FramesMax int `yaml:"frames_max"`
	// StackMax bounds the operand stack of each fiber.
	StackMax int `yaml:"stack_max"`
	// HeapTrace, when non-nil, receives one log line per collection cycle.
	HeapTrace io.Writer `yaml:"-"`
}

func (c *Config) fillDefaults() {
	if c.HeapThreshold <= 0 {
		c.HeapThreshold = 1 << 20
	}
	if c.HeapGrowth <= 1 {
		c.HeapGrowth = 2
	}
	if c.FramesMax <= 0 {
		c.FramesMax = 1024
	}
	if c.StackMax <= 0 {
		c.StackMax = 1 << 16
	}
}

// LoadConfig reads tuning knobs from a YAML file. Missing keys keep their
// defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("yarel: reading config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(raw, cfg); err != nil {
		return nil, fmt.Errorf("yarel: parsing config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}
