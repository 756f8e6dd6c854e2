package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bamsammich/pdd/internal/cancel"
	"github.com/bamsammich/pdd/internal/config"
	"github.com/bamsammich/pdd/internal/engine"
	"github.com/bamsammich/pdd/internal/event"
	"github.com/bamsammich/pdd/internal/platform"
	"github.com/bamsammich/pdd/internal/size"
	"github.com/bamsammich/pdd/internal/stats"
	"github.com/bamsammich/pdd/internal/ui"
	"github.com/bamsammich/pdd/internal/ui/tui"
)

var version = "dev"

// newFlag supplies the cancel flag shared by signal handling and the engine.
var newFlag = func() *cancel.Flag { return &cancel.Flag{} }

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// flags holds the root command's flag values.
type flags struct {
	status      statusFlag
	quiet       bool
	verbose     bool
	tui         bool
	interval    time.Duration
	bwLimit     string
	logFile     string
	showVersion bool
	configFile  string
}

// newRootCmd builds the pdd command. The streams back the "-" operands and
// all terminal output.
func newRootCmd(stdin, stdout, stderr *os.File) *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "pdd [flags] [operand...]",
		Short: "Block copy with live progress, in the spirit of dd",
		Long: `pdd copies a file or device block by block and reports progress while it runs.

Operands use dd syntax:
  if=FILE     read from FILE instead of stdin
  of=FILE     write to FILE instead of stdout
  bs=N        block size (K, M, G suffixes); probed from the source when unset
  count=N     copy only N blocks
  skip=N      skip N blocks at the start of the input
  seek=N      skip N blocks at the start of the output
  sync        open the output with O_SYNC
  direct      bypass the page cache when the platform allows it
  fsync       flush the output after every block`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "pdd %s\n", version)
				return nil
			}
			return runCopy(cmd, &f, args, stdin, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.Flags().BoolVar(&f.showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		Var(&f.status, "status", "progress display: auto, progress, plain or none")
	rootCmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress and summary")
	rootCmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose diagnostics")
	rootCmd.Flags().BoolVar(&f.tui, "tui", false, "full-screen TUI (Bubble Tea)")
	rootCmd.Flags().
		DurationVar(&f.interval, "interval", ui.DefaultInterval, "progress refresh interval")
	rootCmd.Flags().StringVar(&f.bwLimit, "bwlimit", "", "bandwidth limit per second (e.g. 50M)")
	rootCmd.Flags().StringVar(&f.logFile, "log", "", "write structured JSON log to FILE")
	rootCmd.PersistentFlags().
		StringVar(&f.configFile, "config", config.Path(), "config file")

	rootCmd.AddCommand(newPlatformCmd())
	rootCmd.AddCommand(docsCmd)

	return rootCmd
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: CLI entry point wires config, logging and presenters
func runCopy(cmd *cobra.Command, f *flags, args []string, stdin, stdout, stderr *os.File) error {
	slog.SetDefault(slog.New(ui.NewDiagHandler(stderr, logLevel(f.verbose, f.quiet))))

	cfg, err := config.LoadFile(f.configFile)
	if err != nil {
		return err
	}

	base, err := applyConfigDefaults(cmd, cfg.Defaults, f)
	if err != nil {
		return err
	}

	opts, err := config.ParseOperands(base, args)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if f.interval <= 0 {
		return &config.Error{Field: "interval", Value: f.interval.String(), Reason: "must be positive"}
	}

	var bwLimit int64
	if f.bwLimit != "" {
		bwLimit, err = size.Parse(f.bwLimit)
		if err != nil {
			return &config.Error{Field: "bwlimit", Value: f.bwLimit, Reason: err.Error()}
		}
	}

	if f.logFile != "" {
		lf, lfErr := os.Create(f.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}).WithAttrs([]slog.Attr{slog.String("run", uuid.NewString())})
		slog.SetDefault(slog.New(ui.NewMultiHandler(slog.Default().Handler(), jsonHandler)))
	}

	// Keep the copied stream clean when writing to stdout.
	out := stdout
	if opts.IsStdOut() {
		out = stderr
	}
	isTTY := ui.IsTTY(out.Fd())

	flag := newFlag()
	stopSignals := cancel.Notify(flag)
	defer stopSignals()

	collector := stats.NewCollector()
	events := make(chan event.Event, 64)

	engineCfg := engine.Config{
		Options: opts,
		Probe:   platform.Native(),
		Stats:   collector,
		Cancel:  flag,
		Events:  events,
		BWLimit: bwLimit,
		Stdin:   stdin,
		Stdout:  stdout,
	}

	slog.Debug("starting copy",
		"if", opts.Input,
		"of", opts.Output,
		"bs", opts.BlockSize,
		"count", opts.Count,
		"skip", opts.Skip,
		"seek", opts.Seek,
		"direct", opts.Direct,
	)

	var result engine.Result
	if f.tui && isTTY && !f.quiet {
		result = runTUI(engineCfg, cfg.Theme, events)
	} else {
		if f.tui && !f.quiet {
			slog.Warn("--tui requires a terminal, falling back to inline output")
		}
		renderer := ui.NewRenderer(ui.Config{
			Writer:  out,
			Mode:    f.status.mode,
			IsTTY:   isTTY,
			Quiet:   f.quiet,
			Styles:  ui.NewBarStyles(cfg.Theme),
			Columns: ui.TermWidth(out.Fd()),
		})
		result = runInline(engineCfg, renderer, f.interval, events)
	}

	if result.Err != nil {
		slog.Error(result.Err.Error())
		return &exitError{code: 1}
	}
	if result.Cancelled {
		slog.Warn("copy cancelled", "bytes", result.Stats.BytesCopied)
	}
	if !f.quiet {
		fmt.Fprintln(out, ui.Summary(result.Stats))
	}
	return nil
}

// runInline runs the engine in the foreground while a Monitor samples the
// collector on its own goroutine.
func runInline(cfg engine.Config, renderer ui.Renderer, interval time.Duration, events chan event.Event) engine.Result {
	ctx := context.Background()

	mon := ui.NewMonitor(ui.MonitorConfig{
		Stats:    cfg.Stats,
		Renderer: renderer,
		Interval: interval,
	})

	// The monitor only runs once blocks start moving, so a run that fails to
	// open or skip draws nothing.
	teeDone := make(chan struct{})
	go func() {
		defer close(teeDone)
		teeEvents(ctx, events, nil, mon.Start)
	}()

	result := engine.Run(ctx, cfg)
	close(events)
	<-teeDone

	if result.Err == nil && !result.Cancelled {
		mon.Finish()
	} else {
		mon.Stop()
	}
	return result
}

// runTUI runs the engine in the background and Bubble Tea in the foreground,
// which needs the terminal to capture keys.
func runTUI(cfg engine.Config, theme config.ThemeConfig, events chan event.Event) engine.Result {
	engineCtx, engineCancel := context.WithCancel(context.Background())
	defer engineCancel()

	presenterCtx, presenterGone := context.WithCancel(context.Background())
	defer presenterGone()

	tuiEvents := make(chan event.Event, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		teeEvents(presenterCtx, events, tuiEvents, nil)
	}()

	var result engine.Result
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		result = engine.Run(engineCtx, cfg)
		close(events)
	}()

	presenter := tui.NewPresenter(tui.Config{
		Stats:  cfg.Stats,
		Cancel: cfg.Cancel,
		Src:    cfg.Options.Input,
		Dst:    cfg.Options.Output,
		Theme:  theme,
	})
	if err := presenter.Run(tuiEvents); err != nil {
		slog.Warn("tui failed", "error", err)
	}

	// The user left the TUI; stop the engine if it is still copying.
	presenterGone()
	cfg.Cancel.Set()
	<-engineDone
	wg.Wait()
	return result
}

// teeEvents logs every engine event and forwards it to fwd when non-nil.
// onStarted, when non-nil, runs on CopyStarted. Forwarding stops once ctx is
// done; logging continues until in is closed.
func teeEvents(ctx context.Context, in <-chan event.Event, fwd chan<- event.Event, onStarted func()) {
	if fwd != nil {
		defer close(fwd)
	}
	for ev := range in {
		slog.LogAttrs(context.Background(), slog.LevelDebug, "pdd.event", slog.Any("event", ev))
		if ev.Type == event.CopyStarted && onStarted != nil {
			onStarted()
		}
		if fwd == nil {
			continue
		}
		select {
		case fwd <- ev:
		case <-ctx.Done():
		}
	}
}

func logLevel(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// applyConfigDefaults fills flags the command line left unset from the config
// file and returns the operand base. Operands parsed on top of it win.
//
//nolint:gocyclo // one branch per config key
func applyConfigDefaults(cmd *cobra.Command, d config.DefaultsConfig, f *flags) (config.Options, error) {
	opts := config.DefaultOptions()

	if d.BlockSize != nil {
		bs, err := size.Parse(*d.BlockSize)
		if err != nil {
			return opts, &config.Error{Field: "defaults.bs", Value: *d.BlockSize, Reason: err.Error()}
		}
		opts.BlockSize = bs
	}
	if d.Sync != nil {
		opts.Sync = *d.Sync
	}
	if d.Direct != nil {
		opts.Direct = *d.Direct
	}
	if d.Fsync != nil {
		opts.Fsync = *d.Fsync
	}

	if !cmd.Flags().Changed("status") && d.Status != nil {
		if err := f.status.Set(*d.Status); err != nil {
			return opts, &config.Error{Field: "defaults.status", Value: *d.Status, Reason: err.Error()}
		}
	}
	if !cmd.Flags().Changed("interval") && d.Interval != nil {
		iv, err := time.ParseDuration(*d.Interval)
		if err != nil {
			return opts, &config.Error{Field: "defaults.interval", Value: *d.Interval, Reason: err.Error()}
		}
		f.interval = iv
	}
	if !cmd.Flags().Changed("bwlimit") && d.BWLimit != nil {
		f.bwLimit = *d.BWLimit
	}
	if !cmd.Flags().Changed("tui") && d.TUI != nil {
		f.tui = *d.TUI
	}
	return opts, nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

