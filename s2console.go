package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s2console/pkg/config"
)

// ErrNoConfigFile is returned when -f is missing.
var ErrNoConfigFile = errors.New("configuration file not provided, use -f")

// cli holds what the subcommands share once the configuration is read.
type cli struct {
	fileName string
	cfg      config.Config
	log      *slog.Logger
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logOutput io.Writer) *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "s2console",
		Short: "Browse buckets and files of a storage backend",
		Long: `s2console serves a paginated listing API over a directory tree or S3,
and browses it from a web console or a terminal console.

Examples:
  s2console api -f config.yaml   # listing API
  s2console web -f config.yaml   # web console
  s2console tui -f config.yaml   # terminal console`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.fileName == "" {
				return ErrNoConfigFile
			}
			cfg, err := config.ReadYamlCnxFile(c.fileName)
			if err != nil {
				return fmt.Errorf("error reading configuration file: %w", err)
			}
			c.cfg = cfg
			c.log = initTrace(logOutput, cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.fileName, "config", "f", "", "Configuration file")

	root.AddCommand(newAPICmd(c), newWebCmd(c), newTUICmd(c))
	return root
}

// signalContext returns a context cancelled on SIGTERM/SIGINT.
func (c *cli) signalContext(parent context.Context) context.Context {
	ctx, cancelFunc := context.WithCancel(parent)
	SetupCloseHandler(ctx, cancelFunc, c.log)
	return ctx
}

func SetupCloseHandler(ctx context.Context, cancelFunc context.CancelFunc, log *slog.Logger) {
	c := make(chan os.Signal, 5)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case s := <-c:
			log.Info("INFO: signal received", slog.String("signal", s.String()))
			cancelFunc()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
}

// initTrace initializes the logger
func initTrace(w io.Writer, debugLevel string) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	switch debugLevel {
	case "debug":
		handlerOptions.Level = slog.LevelDebug
		handlerOptions.AddSource = true
	case "info":
		handlerOptions.Level = slog.LevelInfo
	case "warn":
		handlerOptions.Level = slog.LevelWarn
	case "error":
		handlerOptions.Level = slog.LevelError
	}

	handler := slog.NewTextHandler(w, handlerOptions)
	return slog.New(handler)
}
