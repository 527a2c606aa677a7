package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/scott-cotton/cli"
	"github.com/signadot/sharedoc"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/mirror"
	"github.com/signadot/sharedoc/presence"
	"github.com/signadot/sharedoc/render"
)

func watch(cfg *WatchConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Watch.Parse(cc, args)
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

	wt := newWatcher(cc.Out, cfg.colors(cc.Out), cfg.Full)
	cancelDoc := w.RootMirror().Subscribe(wt.snapshot)
	defer cancelDoc()
	cancelPeers := w.OnPeers(wt.peers)
	defer cancelPeers()
	wt.start(w.Value(), w.Peers())

	var done <-chan struct{}
	if s := w.Session(); s != nil {
		done = s.Done()
	}
	select {
	case <-ctx.Done():
		return nil
	case <-done:
		return w.Session().Err()
	}
}

type watcher struct {
	mu     sync.Mutex
	out    io.Writer
	colors *render.Colors
	full   bool
	last   string
}

func newWatcher(out io.Writer, c *render.Colors, full bool) *watcher {
	return &watcher{out: out, colors: c, full: full}
}

func (wt *watcher) start(v *ir.Node, l presence.List) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	wt.last = render.Value(v, render.Plain())
	fmt.Fprint(wt.out, render.Value(v, wt.colors))
	render.Peers(wt.out, l, wt.colors)
}

func (wt *watcher) snapshot(s mirror.Snapshot) {
	v := ir.Get(s.Value, sharedoc.DocKey)
	next := render.Value(v, render.Plain())
	wt.mu.Lock()
	defer wt.mu.Unlock()
	if next == wt.last {
		return
	}
	fmt.Fprintf(wt.out, "--- version %d\n", s.Version)
	if wt.full {
		fmt.Fprint(wt.out, render.Value(v, wt.colors))
	} else {
		fmt.Fprint(wt.out, render.Diff(wt.last, next, wt.colors))
	}
	wt.last = next
}

func (wt *watcher) peers(l presence.List) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	render.Peers(wt.out, l, wt.colors)
}
