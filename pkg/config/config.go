// Package config loads the blog API server configuration from YAML
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/WhileEndless/go-httpmessage/pkg/cache"
	"github.com/WhileEndless/go-httpmessage/pkg/errors"
	"github.com/WhileEndless/go-httpmessage/pkg/logging"
)

// Config is the server configuration
type Config struct {
	Listen      string            `yaml:"listen"`
	Token       string            `yaml:"token"`
	Log         logging.Options   `yaml:"log"`
	Cache       cache.Options     `yaml:"cache"`
	Compression CompressionConfig `yaml:"compression"`
}

// CompressionConfig toggles response compression
type CompressionConfig struct {
	Enabled bool `yaml:"enabled"`
	Level   int  `yaml:"level"` // 0 selects each coding's default
}

// SetDefaults fills empty fields
func (c *Config) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Token == "" {
		c.Token = "demo-token"
	}
	c.Log.SetDefaults()
	c.Cache.SetDefaults()
}

// Load reads the YAML file at path. Missing keys take their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.StreamIO("failed to read config", "config.Load", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults
func Parse(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.NewError(errors.ErrorTypeInvalidArgument, "invalid config", "config.Parse", err)
	}
	config.SetDefaults()
	return config, nil
}
