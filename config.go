package sharedoc

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/signadot/sharedoc/presence"
	"github.com/signadot/sharedoc/system/session"
	"gopkg.in/yaml.v3"
)

// Config configures a workspace. An empty Address opens it offline.
type Config struct {
	Address   string `yaml:"address"`
	Room      string `yaml:"room"`
	AccessKey string `yaml:"accessKey"`

	Name  string `yaml:"name"`
	Color string `yaml:"color"`

	// InitialDoc is a JSON file used for root.doc when the room has none.
	InitialDoc string `yaml:"initialDoc"`

	MinBackoff time.Duration `yaml:"minBackoff"`
	MaxBackoff time.Duration `yaml:"maxBackoff"`
	MaxElapsed time.Duration `yaml:"maxElapsed"`
}

func DefaultConfig() *Config {
	sc := session.DefaultConfig()
	return &Config{
		Room:       "default",
		Name:       "anonymous",
		Color:      presence.RandomColor(),
		MinBackoff: sc.MinBackoff,
		MaxBackoff: sc.MaxBackoff,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(d, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Room == "" {
		errs = append(errs, errors.New("room is empty"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if err := presence.ValidColor(c.Color); err != nil {
		errs = append(errs, err)
	}
	if c.Address != "" {
		sc := c.sessionConfig()
		if err := sc.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) sessionConfig() session.Config {
	sc := session.DefaultConfig()
	sc.URL = c.Address
	sc.Room = c.Room
	sc.AccessKey = c.AccessKey
	sc.MinBackoff = c.MinBackoff
	sc.MaxBackoff = c.MaxBackoff
	sc.MaxElapsed = c.MaxElapsed
	return sc
}
