package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/scott-cotton/cli"
	"github.com/signadot/sharedoc/render"
	"github.com/signadot/sharedoc/tree"
)

func printTree(cfg *TreeConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Tree.Parse(cc, args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	w, err := cfg.open(ctx, cc)
	if err != nil {
		return err
	}
	defer w.Close()
	nodes := w.Tree()
	if cfg.Where != "" {
		nodes, err = tree.Filter(nodes, cfg.Where)
		if err != nil {
			return err
		}
	}
	return render.Tree(cc.Out, nodes, cfg.colors(cc.Out))
}
