package session

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config says where and how a session connects.
type Config struct {
	// URL is the relay base URL, ws:// or wss://.
	URL       string
	Room      string
	AccessKey string

	MinBackoff time.Duration
	MaxBackoff time.Duration
	// MaxElapsed bounds how long to keep reconnecting. Zero retries forever.
	MaxElapsed time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

func DefaultConfig() Config {
	return Config{
		URL:          "ws://localhost:1234",
		MinBackoff:   250 * time.Millisecond,
		MaxBackoff:   10 * time.Second,
		ReadTimeout:  75 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   256,
	}
}

func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.URL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("bad url %q: %w", c.URL, err))
	case u.Scheme != "ws" && u.Scheme != "wss":
		errs = append(errs, fmt.Errorf("url %q: scheme must be ws or wss", c.URL))
	}
	if c.Room == "" {
		errs = append(errs, errors.New("room is empty"))
	}
	if c.MinBackoff <= 0 || c.MaxBackoff < c.MinBackoff {
		errs = append(errs, fmt.Errorf("bad backoff bounds %s..%s", c.MinBackoff, c.MaxBackoff))
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("sendBuffer must be positive, got %d", c.SendBuffer))
	}
	return errors.Join(errs...)
}
