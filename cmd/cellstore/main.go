// Package main is the entry point for the cellstore command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/dshills/cellstore/internal/config"
	"github.com/dshills/cellstore/internal/csvio"
	"github.com/dshills/cellstore/internal/event"
	"github.com/dshills/cellstore/internal/registry"
	"github.com/dshills/cellstore/internal/script"
	"github.com/dshills/cellstore/internal/table"
	"github.com/dshills/cellstore/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

const usage = `Cellstore - reactive in-memory tables.

Usage:
    cellstore show <csv> [--config=<path>] [--format=<fmt>]
    cellstore run <csv> <script> [--config=<path>] [--format=<fmt>]
    cellstore watch <csv> [<script>] [--config=<path>]
    cellstore -h | --help
    cellstore --version

Options:
    -h --help            Show this screen.
    --version            Show version.
    --config=<path>      Settings file (.toml, .yaml or .yml).
    --format=<fmt>       Output format, text or json [default: text].`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(argv []string, stdout io.Writer) int {
	opts, err := docopt.ParseArgs(usage, argv, fmt.Sprintf("cellstore %s (%s)", version, commit))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	path, _ := opts.String("--config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}
	setupLogging(cfg.Log())
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &command{cfg: cfg, out: stdout, tables: registry.Default()}
	cmd.csv, _ = opts.String("<csv>")
	cmd.script, _ = opts.String("<script>")
	format, _ := opts.String("--format")
	if cmd.render, err = renderer(format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	switch {
	case isSet(opts, "show"):
		err = cmd.show(ctx)
	case isSet(opts, "run"):
		err = cmd.run(ctx)
	case isSet(opts, "watch"):
		err = cmd.watch(ctx)
	}
	if err != nil {
		glog.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func isSet(opts docopt.Opts, name string) bool {
	v, _ := opts.Bool(name)
	return v
}

// setupLogging points glog at stderr with the configured verbosity.
func setupLogging(cfg config.LogConfig) {
	flag.Set("logtostderr", "true")
	flag.Set("v", strconv.Itoa(cfg.Verbosity))
	flag.CommandLine.Parse(nil)
}

type command struct {
	cfg    *config.Config
	out    io.Writer
	tables registry.Registry
	render renderFunc

	csv    string
	script string
}

// load imports the CSV file into the configured table.
func (c *command) load(ctx context.Context) (*table.Table, error) {
	t, err := c.tables.Table(c.cfg.Store().Name)
	if err != nil {
		return nil, err
	}
	if err := csvio.ImportFile(ctx, t, c.csv, c.cfg.CSV()); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *command) state(t *table.Table) *script.State {
	return script.NewState(t,
		script.WithLimits(c.cfg.Script()),
		script.WithListenerDefaults(c.cfg.Listeners()),
		script.WithOutput(c.out),
	)
}

func (c *command) show(ctx context.Context) error {
	t, err := c.load(ctx)
	if err != nil {
		return err
	}
	return c.render(c.out, t)
}

func (c *command) run(ctx context.Context) error {
	t, err := c.load(ctx)
	if err != nil {
		return err
	}
	st := c.state(t)
	defer st.Close()

	if err := st.DoFile(ctx, c.script); err != nil {
		return err
	}
	return c.render(c.out, t)
}

// watch re-imports the CSV file on every change and prints the resulting
// events until interrupted.
func (c *command) watch(ctx context.Context) error {
	t, err := c.load(ctx)
	if err != nil {
		return err
	}
	if c.script != "" {
		st := c.state(t)
		defer st.Close()
		if err := st.DoFile(ctx, c.script); err != nil {
			return err
		}
	}

	ref, err := table.On(ctx, t, func(_ context.Context, _ *event.Ref, events []table.Event) error {
		for _, e := range events {
			fmt.Fprintf(c.out, "v%d %s@%d: %#v -> %#v\n", e.Version(), e.New.Header, e.New.Index, e.Old.Value, e.New.Value)
		}
		return nil
	}, event.WithName("cli"), event.WithOrder(1<<62), event.WithSkipHistory(true), event.WithAllowLoop(true))
	if err != nil {
		return err
	}
	defer table.Off(ref)

	w, err := watch.CSV(t, c.csv, c.cfg.CSV(), c.cfg.Watch())
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
