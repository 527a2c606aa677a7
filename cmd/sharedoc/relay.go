package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
	"github.com/signadot/sharedoc/system/relay/server"
	"github.com/signadot/sharedoc/system/relay/store"
)

func relay(cfg *RelayConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Relay.Parse(cc, args)
	if err != nil {
		return err
	}
	if !cfg.NoGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(cc.Out, "gops agent failed: %v\n", err)
		}
		defer agent.Close()
	}

	rc := server.DefaultConfig()
	if cfg.RelayConfigFile != "" {
		rc, err = server.LoadConfig(cfg.RelayConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cfg.Listen != "" {
		rc.Listen = cfg.Listen
	}
	if cfg.DataDir != "" {
		rc.DataDir = cfg.DataDir
	}
	if cfg.AccessKey != "" {
		rc.AccessKey = cfg.AccessKey
	}
	if err := rc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}

	spec := &server.Spec{Config: rc, Log: newLog(os.Stderr, cfg.Debug)}
	if rc.DataDir != "" {
		if err := os.MkdirAll(rc.DataDir, 0o755); err != nil {
			return err
		}
		st, err := store.OpenBolt(filepath.Join(rc.DataDir, "rooms.db"))
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()
		spec.Store = st
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	srv := server.New(spec)
	return srv.ListenAndServe(ctx)
}
