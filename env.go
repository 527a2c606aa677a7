package sharedoc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadEnv.
const (
	EnvAddress    = "SHAREDOC_ADDRESS"
	EnvRoom       = "SHAREDOC_ROOM"
	EnvAccessKey  = "SHAREDOC_ACCESS_KEY"
	EnvName       = "SHAREDOC_NAME"
	EnvColor      = "SHAREDOC_COLOR"
	EnvInitialDoc = "SHAREDOC_INITIAL_DOC"
	EnvMaxElapsed = "SHAREDOC_MAX_ELAPSED"
)

// LoadEnv overlays SHAREDOC_* settings onto c. Values come from the given
// dotenv files, or ./.env when none are given and it exists; variables
// set in the process environment take precedence.
func LoadEnv(c *Config, files ...string) error {
	vals := map[string]string{}
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(files) > 0 {
		m, err := godotenv.Read(files...)
		if err != nil {
			return fmt.Errorf("read env files: %w", err)
		}
		vals = m
	}
	get := func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok {
			return v, true
		}
		v, ok := vals[k]
		return v, ok
	}
	for k, dst := range map[string]*string{
		EnvAddress:    &c.Address,
		EnvRoom:       &c.Room,
		EnvAccessKey:  &c.AccessKey,
		EnvName:       &c.Name,
		EnvColor:      &c.Color,
		EnvInitialDoc: &c.InitialDoc,
	} {
		if v, ok := get(k); ok {
			*dst = v
		}
	}
	if v, ok := get(EnvMaxElapsed); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxElapsed, err)
		}
		c.MaxElapsed = d
	}
	return nil
}
