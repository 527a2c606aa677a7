package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/signadot/sharedoc/system/relay/store"
	"gopkg.in/yaml.v3"
)

// Spec holds the runtime specification for the server.
// Config contains the serializable settings loaded from a file.
type Spec struct {
	Config *Config
	Store  store.Store
	Log    *slog.Logger
}

// Config is the relay configuration file.
type Config struct {
	// Listen is the address to serve on.
	Listen string `yaml:"listen"`

	// AccessKey, when set, must be presented by clients as a bearer token.
	AccessKey string `yaml:"accessKey"`

	// DataDir holds the room store. Empty keeps rooms in memory.
	DataDir string `yaml:"dataDir"`

	MaxMessageBytes int64         `yaml:"maxMessageBytes"`
	SendBuffer      int           `yaml:"sendBuffer"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	PingInterval    time.Duration `yaml:"pingInterval"`
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "localhost:1234",
		MaxMessageBytes: 4 << 20,
		SendBuffer:      256,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("maxMessageBytes must be positive, got %d", c.MaxMessageBytes))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("sendBuffer must be positive, got %d", c.SendBuffer))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("writeTimeout must be positive, got %s", c.WriteTimeout))
	}
	if c.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("pingInterval must be positive, got %s", c.PingInterval))
	}
	return errors.Join(errs...)
}
