package vbo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/vbo/gl"
	"github.com/gogpu/vbo/gpucore"
)

// Config is the file form of the Context options.
//
//	backend: capture
//	exec_buffer_size: 65536
//	save_buffer_size: 1048576
//	max_prims: 64
//	dedup: true
//	persistent_mapping: false
//	supported_modes: [points, lines, line_strip, triangles, triangle_strip]
type Config struct {
	Backend           string   `yaml:"backend,omitempty"`
	ExecBufferSize    int      `yaml:"exec_buffer_size,omitempty"`
	SaveBufferSize    int      `yaml:"save_buffer_size,omitempty"`
	NodeSize          int      `yaml:"node_size,omitempty"`
	MaxPrims          int      `yaml:"max_prims,omitempty"`
	Dedup             *bool    `yaml:"dedup,omitempty"`
	PersistentMapping bool     `yaml:"persistent_mapping"`
	SupportedModes    []string `yaml:"supported_modes,omitempty"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vbo: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates a YAML config.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks sizes and mode names.
func (c *Config) Validate() error {
	switch {
	case c.ExecBufferSize < 0:
		return fmt.Errorf("%w: exec_buffer_size %d", ErrInvalidConfig, c.ExecBufferSize)
	case c.SaveBufferSize < 0:
		return fmt.Errorf("%w: save_buffer_size %d", ErrInvalidConfig, c.SaveBufferSize)
	case c.NodeSize < 0:
		return fmt.Errorf("%w: node_size %d", ErrInvalidConfig, c.NodeSize)
	case c.MaxPrims < 0:
		return fmt.Errorf("%w: max_prims %d", ErrInvalidConfig, c.MaxPrims)
	}
	for _, name := range c.SupportedModes {
		if _, ok := gl.ParseMode(name); !ok {
			return fmt.Errorf("%w: unknown primitive mode %q", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Caps returns the capabilities the config describes, and false when it
// leaves them to the backend.
func (c *Config) Caps() (gpucore.Caps, bool) {
	if len(c.SupportedModes) == 0 && !c.PersistentMapping {
		return gpucore.Caps{}, false
	}
	caps := gpucore.DefaultCaps()
	if len(c.SupportedModes) > 0 {
		caps.SupportedModes = 0
		for _, name := range c.SupportedModes {
			m, _ := gl.ParseMode(name)
			caps.SupportedModes |= gl.MaskOf(m)
		}
	}
	caps.PersistentMapping = c.PersistentMapping
	return caps, true
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
