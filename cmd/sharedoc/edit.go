package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"unicode"

	"github.com/scott-cotton/cli"
	"github.com/signadot/sharedoc"
	"github.com/signadot/sharedoc/crdt"
	"github.com/signadot/sharedoc/ir"
	"github.com/signadot/sharedoc/render"
)

func edit(cfg *EditConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Edit.Parse(cc, args)
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
	e := &editor{w: w, out: cc.Out, colors: cfg.colors(cc.Out)}
	return e.run(cc.In)
}

type editor struct {
	w      *sharedoc.Workspace
	out    io.Writer
	colors *render.Colors
}

var errQuit = errors.New("quit")

func (e *editor) run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		err := e.exec(sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(e.out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

// cut splits off the first word of s.
func cut(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func need(args ...string) error {
	for _, a := range args {
		if a == "" {
			return fmt.Errorf("%w: missing argument", cli.ErrUsage)
		}
	}
	return nil
}

func (e *editor) exec(line string) error {
	cmd, rest := cut(line)
	if strings.HasPrefix(cmd, "#") {
		return nil
	}
	root := e.w.Root()
	gw := e.w.Gateway()
	switch cmd {
	case "":
		return nil
	case "quit", "exit":
		return errQuit
	case "show":
		path := rest
		if path == "" {
			path = sharedoc.DocKey
		}
		c, err := sharedoc.Resolve(root, path)
		if err != nil {
			return err
		}
		fmt.Fprint(e.out, render.Value(crdt.ToValue(c), e.colors))
	case "add", "set":
		path, rest := cut(rest)
		key, js := cut(rest)
		if err := need(path, key, js); err != nil {
			return err
		}
		m, err := sharedoc.ResolveMap(root, path)
		if err != nil {
			return err
		}
		v, err := ir.FromJSON([]byte(js))
		if err != nil {
			return err
		}
		if cmd == "add" {
			return gw.AddField(m, key, v)
		}
		return gw.SetField(m, key, v)
	case "del":
		path, key := cut(rest)
		if err := need(path, key); err != nil {
			return err
		}
		m, err := sharedoc.ResolveMap(root, path)
		if err != nil {
			return err
		}
		if !gw.DeleteField(m, key) {
			fmt.Fprintf(e.out, "no field %q\n", key)
		}
	case "push":
		path, js := cut(rest)
		if err := need(path, js); err != nil {
			return err
		}
		s, err := sharedoc.ResolveSequence(root, path)
		if err != nil {
			return err
		}
		v, err := ir.FromJSON([]byte(js))
		if err != nil {
			return err
		}
		return gw.Append(s, v)
	case "rm":
		path, idx := cut(rest)
		if err := need(path, idx); err != nil {
			return err
		}
		s, err := sharedoc.ResolveSequence(root, path)
		if err != nil {
			return err
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			return fmt.Errorf("bad index %q", idx)
		}
		if !gw.DeleteIndex(s, i) {
			fmt.Fprintf(e.out, "no element %d\n", i)
		}
	case "patch":
		path, rest := cut(rest)
		key, patch := cut(rest)
		if err := need(path, key, patch); err != nil {
			return err
		}
		m, err := sharedoc.ResolveMap(root, path)
		if err != nil {
			return err
		}
		return gw.PatchField(m, key, []byte(patch))
	case "node":
		var parent *string
		if rest != "" {
			parent = &rest
		}
		n, err := e.w.InsertNode(parent)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, n.ID)
	case "rmnode":
		if err := need(rest); err != nil {
			return err
		}
		if !e.w.DeleteNode(rest) {
			fmt.Fprintf(e.out, "no node %q\n", rest)
		}
	case "tree":
		return render.Tree(e.out, e.w.Tree(), e.colors)
	case "peers":
		return render.Peers(e.out, e.w.Peers(), e.colors)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
