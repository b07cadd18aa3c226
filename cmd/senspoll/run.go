package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/senspoll/internal/central"
	goble "github.com/srg/senspoll/internal/device/go-ble"
	"github.com/srg/senspoll/internal/groutine"
	"github.com/srg/senspoll/internal/report"
	"github.com/srg/senspoll/pkg/config"
)

// StackCloser is a central.Stack the command owns and must close
type StackCloser interface {
	central.Stack
	Close() error
}

// droppedCounter is implemented by stacks that shed advertisements under load
type droppedCounter interface {
	Dropped() uint64
}

// StackFactory opens the wireless stack (can be overridden in tests)
//
//nolint:revive // StackFactory name is intentional for test mocking
var StackFactory = func(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (StackCloser, error) {
	opts := goble.DefaultOptions()
	opts.StopScanTimeout = cfg.StopScanTimeout
	stack, err := goble.NewStack(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	return stack, nil
}

// loadConfig reads --config, or the stock configuration when the flag is unset
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func newRunCmd() *cobra.Command {
	var (
		interval    time.Duration
		readTimeout time.Duration
		format      string
		noColor     bool
		count       int
		duration    time.Duration
		history     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the configured sensors and poll them",
		Long: `Scans for the configured peers, connects to each as it is found and polls
every discovered characteristic on a fixed cadence. Runs until interrupted,
until --count samples were printed or until --duration elapsed.`,
		Example: `  senspoll run
  senspoll run --config senspoll.yaml --interval 1s
  senspoll run --format json --count 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.PollInterval = interval
			}
			if cmd.Flags().Changed("read-timeout") {
				cfg.ReadTimeout = readTimeout
			}
			if cmd.Flags().Changed("format") {
				cfg.OutputFormat = format
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Args validated, don't show usage on runtime errors
			cmd.SilenceUsage = true

			logger, err := configureLogger(cmd, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writer, err := NewSampleWriter(out, cfg.OutputFormat, !noColor && isTerminal(out))
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if duration > 0 {
				var stop context.CancelFunc
				ctx, stop = context.WithTimeout(ctx, duration)
				defer stop()
			}

			return runPoll(ctx, cmd, cfg, logger, writer, pollLimits{count: count, history: history})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Poll interval")
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "Give up on a read after this long (0 waits forever)")
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatText, "Output format (text, json)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many samples (0 for no limit)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 for no limit)")
	cmd.Flags().BoolVar(&history, "history", false, "Print the retained sample history (history_size) on exit")
	return cmd
}

// pollLimits are the run options that shape when polling ends and what is printed after
type pollLimits struct {
	count   int
	history bool
}

func runPoll(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger, writer SampleWriter, limits pollLimits) error {
	peers, err := cfg.PeerSpecs()
	if err != nil {
		return err
	}

	collector, err := report.NewCollector(cfg.HistorySize, report.DefaultStreamSize)
	if err != nil {
		return err
	}
	defer collector.Close()

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	stack, err := StackFactory(runCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close BLE stack")
		}
	}()

	params := cfg.ConnectParams()
	c, err := central.New(stack, peers, central.Options{
		Logger:        logger,
		Reporter:      collector,
		PollInterval:  cfg.PollInterval,
		ReadTimeout:   cfg.ReadTimeout,
		ConnectParams: &params,
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"peers":    len(peers),
		"interval": cfg.PollInterval,
	}).Info("Polling sensors...")

	done := make(chan error, 1)
	groutine.Go(runCtx, "central", func(ctx context.Context) {
		done <- c.Run(ctx)
	})

	var runErr error
	finished := false
	written := 0
loop:
	for {
		select {
		case s := <-collector.Stream():
			if err := writer.Write(s); err != nil {
				runErr = fmt.Errorf("write sample: %w", err)
				break loop
			}
			written++
			if limits.count > 0 && written >= limits.count {
				break loop
			}
		case err := <-done:
			runErr, finished = err, true
			break loop
		}
	}

	stopRun()
	if !finished {
		if err := <-done; runErr == nil {
			runErr = err
		}
	}

	stats := collector.Stats()
	fields := logrus.Fields{
		"samples":     stats.Reported,
		"written":     written,
		"overwritten": stats.StreamOverwritten,
	}
	if dc, ok := stack.(droppedCounter); ok {
		fields["dropped_advertisements"] = dc.Dropped()
	}
	logger.WithFields(fields).Info("Polling stopped")

	// Stopping on a signal, a limit or a timeout is a normal exit
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		runErr = nil
	}
	if runErr != nil {
		return runErr
	}

	stderr := cmd.ErrOrStderr()
	if cfg.OutputFormat == config.FormatText {
		fmt.Fprintln(stderr)
		if err := writeSnapshot(stderr, collector.Snapshot()); err != nil {
			return err
		}
	}
	if limits.history {
		fmt.Fprintln(stderr)
		return writeHistory(stderr, collector.Drain())
	}
	return nil
}
