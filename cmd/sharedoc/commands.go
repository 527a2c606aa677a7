package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "sharedoc").
		WithSynopsis("sharedoc [opts] command [opts]").
		WithDescription("sharedoc edits shared documents through a relay.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return sharedocMain(cfg, cc, args)
		}).
		WithSubs(
			RelayCommand(cfg),
			EditCommand(cfg),
			WatchCommand(cfg),
			TreeCommand(cfg))
}

func RelayCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RelayConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Relay, "relay").
		WithSynopsis("relay [-relay-config file] [-listen addr] [-data dir]").
		WithDescription("run the relay server").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return relay(cfg, cc, args)
		})
}

func EditCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &EditConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Edit, "edit").
		WithAliases("e").
		WithSynopsis("edit").
		WithDescription(editDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return edit(cfg, cc, args)
		})
}

func WatchCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &WatchConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Watch, "watch").
		WithAliases("w").
		WithSynopsis("watch [-full]").
		WithDescription("print the document and a diff on every change").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return watch(cfg, cc, args)
		})
}

func TreeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TreeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Tree, "tree").
		WithAliases("t").
		WithSynopsis("tree [-where expr]").
		WithDescription("print the node hierarchy").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return printTree(cfg, cc, args)
		})
}

const editDescription = `edit reads editing commands, one per line.

Paths are dotted keys and [i] indices below the root map, e.g. doc.windows
or doc.list[2]. Values are JSON.

  show [path]                 print the value at path (default doc)
  add <path> <key> <json>     add a field, failing if it exists
  set <path> <key> <json>     set a field
  del <path> <key>            delete a field
  push <path> <json>          append to a sequence
  rm <path> <index>           delete a sequence element
  patch <path> <key> <patch>  apply a JSON patch to a field
  node [parent-id]            insert a tree node
  rmnode <id>                 delete a tree node
  tree                        print the node hierarchy
  peers                       print who is connected
  quit`
