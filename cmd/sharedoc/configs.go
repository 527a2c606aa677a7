package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/signadot/sharedoc"
	"github.com/signadot/sharedoc/render"
)

type MainConfig struct {
	ConfigFile string `cli:"name=config desc='workspace config file (yaml)'"`
	EnvFile    string `cli:"name=env desc='dotenv file with SHAREDOC_* settings'"`
	Addr       string `cli:"name=addr desc='relay address, ws://host:port'"`
	Room       string `cli:"name=room desc='room to join'"`
	Key        string `cli:"name=key desc='relay access key'"`
	Name       string `cli:"name=name desc='name shown to other peers'"`
	Color      string `cli:"name=color desc='color shown to other peers, #rrggbb'"`
	Init       string `cli:"name=init desc='JSON file for the document when the room has none'"`
	NoColor    bool   `cli:"name=no-color desc='do not color output'"`
	Debug      bool   `cli:"name=debug desc='debug logging'"`

	Main *cli.Command
}

// workspaceConfig layers the config file, the environment and the flags.
func (cfg *MainConfig) workspaceConfig() (*sharedoc.Config, error) {
	wc := sharedoc.DefaultConfig()
	if cfg.ConfigFile != "" {
		var err error
		wc, err = sharedoc.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
	}
	var files []string
	if cfg.EnvFile != "" {
		files = append(files, cfg.EnvFile)
	}
	if err := sharedoc.LoadEnv(wc, files...); err != nil {
		return nil, err
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{cfg.Addr, &wc.Address},
		{cfg.Room, &wc.Room},
		{cfg.Key, &wc.AccessKey},
		{cfg.Name, &wc.Name},
		{cfg.Color, &wc.Color},
		{cfg.Init, &wc.InitialDoc},
	} {
		if o.flag != "" {
			*o.dst = o.flag
		}
	}
	if err := wc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return wc, nil
}

func (cfg *MainConfig) open(ctx context.Context, cc *cli.Context) (*sharedoc.Workspace, error) {
	wc, err := cfg.workspaceConfig()
	if err != nil {
		return nil, err
	}
	log := newLog(os.Stderr, cfg.Debug)
	w, err := sharedoc.Open(ctx, wc, sharedoc.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	if wc.Address == "" {
		fmt.Fprintln(cc.Out, "offline: no relay address")
	}
	return w, nil
}

func (cfg *MainConfig) colors(w io.Writer) *render.Colors {
	if cfg.NoColor {
		return render.Plain()
	}
	if f, ok := w.(*os.File); ok {
		return render.For(f)
	}
	return render.Plain()
}

type RelayConfig struct {
	*MainConfig
	Relay *cli.Command

	RelayConfigFile string `cli:"name=relay-config desc='relay config file (yaml)'"`
	Listen          string `cli:"name=listen desc='listen address'"`
	DataDir         string `cli:"name=data desc='directory for the room store; memory when empty'"`
	AccessKey       string `cli:"name=access-key desc='key clients must present'"`
	NoGops          bool   `cli:"name=no-gops desc='do not start the gops agent'"`
}

type EditConfig struct {
	*MainConfig
	Edit *cli.Command
}

type WatchConfig struct {
	*MainConfig
	Watch *cli.Command
	Full  bool `cli:"name=full desc='print the whole document on every change'"`
}

type TreeConfig struct {
	*MainConfig
	Tree  *cli.Command
	Where string `cli:"name=where desc='expression selecting nodes, e.g. parentId == nil'"`
}
