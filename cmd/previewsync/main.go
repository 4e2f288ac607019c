// Package main is the entry point for previewsync.
//
// previewsync renders a markdown file, runs a Lua edit script against the
// rendered preview as a user would, submits, and writes the markdown the
// edits were reconciled into.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/previewsync/internal/app"
	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/config"
	"github.com/dshills/previewsync/internal/host/memhost"
	"github.com/dshills/previewsync/internal/script"
	"github.com/dshills/previewsync/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	scriptPath string
	outPath    string
	logLevel   string
	syncDelay  time.Duration
	watch      bool
	input      string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, code, ok := parseFlags(os.Args[1:], os.Stderr)
	if !ok {
		return code
	}

	cfg, err := config.Load(config.WithFile(opts.configPath), config.WithOverrides(opts.overrides()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	level, _ := app.ParseLogLevel(cfg.Logging.Level)
	logCfg := app.DefaultLoggerConfig()
	logCfg.Level = level
	logger := app.NewLogger(logCfg)
	if cfg.File() != "" {
		logger.Debug("loaded config %s", cfg.File())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := &pipeline{opts: opts, cfg: cfg, logger: logger, stdout: os.Stdout}
	if err := p.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (o options) overrides() map[string]any {
	values := make(map[string]any)
	if o.logLevel != "" {
		values["logging.level"] = o.logLevel
	}
	if o.syncDelay > 0 {
		values["sync.delay"] = o.syncDelay
	}
	if o.watch {
		values["watch.enabled"] = true
	}
	return values
}

// parseFlags parses args. ok is false when the program should exit with
// code.
func parseFlags(args []string, stderr io.Writer) (opts options, code int, ok bool) {
	fs := flag.NewFlagSet("previewsync", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var showVersion bool
	fs.StringVar(&opts.configPath, "config", "previewsync.toml", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.configPath, "c", "previewsync.toml", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.scriptPath, "script", "", "Lua edit script to run against the preview")
	fs.StringVar(&opts.scriptPath, "s", "", "Lua edit script (shorthand)")
	fs.StringVar(&opts.outPath, "o", "", "Write the result here instead of stdout")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.DurationVar(&opts.syncDelay, "sync-delay", 0, "Debounce delay for preview edits")
	fs.BoolVar(&opts.watch, "watch", false, "Run again whenever the input file changes")
	fs.BoolVar(&showVersion, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "previewsync - write preview edits back to markdown\n\n")
		fmt.Fprintf(stderr, "Usage: previewsync [options] file.md\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  previewsync -script edit.lua notes.md          Print the edited markdown\n")
		fmt.Fprintf(stderr, "  previewsync -script edit.lua -o notes.md notes.md\n")
		fmt.Fprintf(stderr, "  previewsync -watch -script edit.lua -o out.md notes.md\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, 0, false
		}
		return opts, 2, false
	}

	if showVersion {
		fmt.Fprintf(stderr, "previewsync %s\n", version)
		fmt.Fprintf(stderr, "Commit: %s\n", commit)
		fmt.Fprintf(stderr, "Built: %s\n", date)
		return opts, 0, false
	}

	if opts.logLevel != "" {
		if _, valid := app.ParseLogLevel(opts.logLevel); !valid {
			fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			return opts, 2, false
		}
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return opts, 2, false
	}
	opts.input = fs.Arg(0)
	return opts, 0, true
}

// pipeline renders the input, runs the script and writes the result.
type pipeline struct {
	opts   options
	cfg    *config.Config
	logger *app.Logger
	stdout io.Writer

	sess    *app.Session
	form    *memhost.Form
	watcher *watch.Watcher
}

func (p *pipeline) run(ctx context.Context) error {
	data, err := os.ReadFile(p.opts.input)
	if err != nil {
		return app.NewOperationError("read", p.opts.input, err)
	}

	// Scripts run on virtual time so debounce windows are deterministic.
	fake := clock.NewFake(time.Now())
	p.sess, err = app.New(
		app.WithConfig(p.cfg),
		app.WithLogger(p.logger),
		app.WithClock(fake),
	)
	if err != nil {
		return err
	}
	defer p.sess.Close()

	if p.form, err = p.sess.Open(string(data)); err != nil {
		return err
	}
	if err := p.sess.Start(); err != nil {
		return err
	}

	if err := p.apply(ctx); err != nil {
		return err
	}
	if !p.cfg.Watch.Enabled {
		return nil
	}
	return p.watch(ctx)
}

// apply runs the script, submits and writes the output.
func (p *pipeline) apply(ctx context.Context) error {
	if p.opts.scriptPath != "" {
		r := script.New(p.sess, script.WithForm(p.form), script.WithOutput(os.Stderr))
		err := r.DoFile(ctx, p.opts.scriptPath)
		_ = r.Close()
		if err != nil {
			return app.NewOperationError("script", p.opts.scriptPath, err)
		}
	}
	if err := p.sess.Submit(p.form); err != nil {
		return err
	}
	return p.write(p.sess.Text(p.form))
}

func (p *pipeline) write(text string) error {
	if p.opts.outPath == "" || p.opts.outPath == "-" {
		_, err := io.WriteString(p.stdout, text)
		return err
	}
	if p.watcher != nil && sameFile(p.opts.outPath, p.watcher.Path()) {
		p.watcher.Written(text)
	}
	if err := os.WriteFile(p.opts.outPath, []byte(text), 0o644); err != nil {
		return app.NewOperationError("write", p.opts.outPath, err)
	}
	return nil
}

// watch reloads the input on change and applies the script again until
// ctx is canceled.
func (p *pipeline) watch(ctx context.Context) error {
	changes := make(chan string, 1)
	w, err := watch.New(p.opts.input, func(text string) {
		select {
		case changes <- text:
		default:
			// Drop the stale pending text; the newest wins.
			select {
			case <-changes:
			default:
			}
			changes <- text
		}
	},
		watch.WithDebounce(p.cfg.Watch.Debounce),
		watch.WithDiagnostics(p.logger.WithComponent("watch")),
	)
	if err != nil {
		return err
	}
	p.watcher = w
	if err := w.Start(); err != nil {
		return app.NewOperationError("watch", p.opts.input, err)
	}
	defer w.Close()
	p.logger.Info("watching %s", w.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-changes:
			p.sess.Reload(p.form, text)
			if err := p.sess.Rerender(p.form); err != nil {
				return err
			}
			if err := p.sess.Advance(p.cfg.Scan.Frame); err != nil {
				return err
			}
			if err := p.apply(ctx); err != nil {
				p.logger.Error("%v", err)
			}
		}
	}
}

func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}
