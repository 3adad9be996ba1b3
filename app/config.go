package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Shopify/toxics/pkg/errors"
)

const (
	DefaultEndpoint       = "http://localhost:8474"
	DefaultProxy          = "mqtt-bridge"
	DefaultRequestTimeout = 5 * time.Second
	DefaultCleanupTimeout = 10 * time.Second
)

type Config struct {
	Endpoint       string
	Proxy          string
	RequestTimeout time.Duration
	CleanupTimeout time.Duration
	MetricsAddr    string

	// LogOutput overrides the log destination, stderr when nil.
	LogOutput io.Writer
}

func DefaultConfig() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		Proxy:          DefaultProxy,
		RequestTimeout: DefaultRequestTimeout,
		CleanupTimeout: DefaultCleanupTimeout,
	}
}

func (c Config) Validate() error {
	var problem string
	switch {
	case c.Endpoint == "":
		problem = "control plane endpoint is empty"
	case c.Proxy == "":
		problem = "proxy name is empty"
	case c.RequestTimeout < 0:
		problem = "request timeout is negative"
	case c.CleanupTimeout < 0:
		problem = "cleanup timeout is negative"
	default:
		return nil
	}
	return errors.JoinError(fmt.Errorf("%s", problem), errors.ErrUsage)
}

// FileConfig is the on-disk form of Config. Empty fields keep the value
// they overlay.
type FileConfig struct {
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	Proxy          string `yaml:"proxy" json:"proxy"`
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
	CleanupTimeout string `yaml:"cleanup_timeout" json:"cleanup_timeout"`
	MetricsAddr    string `yaml:"metrics_addr" json:"metrics_addr"`
}

// LoadFile reads a YAML or JSON config file, chosen by extension.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Overlay copies the fields set in the file onto config.
func (f *FileConfig) Overlay(config *Config) error {
	if f.Endpoint != "" {
		config.Endpoint = f.Endpoint
	}
	if f.Proxy != "" {
		config.Proxy = f.Proxy
	}
	if f.RequestTimeout != "" {
		d, err := time.ParseDuration(f.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout: %w", err)
		}
		config.RequestTimeout = d
	}
	if f.CleanupTimeout != "" {
		d, err := time.ParseDuration(f.CleanupTimeout)
		if err != nil {
			return fmt.Errorf("invalid cleanup_timeout: %w", err)
		}
		config.CleanupTimeout = d
	}
	if f.MetricsAddr != "" {
		config.MetricsAddr = f.MetricsAddr
	}
	return nil
}
