// Command suimarket is the client of the on-chain prediction market. It
// serves the HTTP/WebSocket API, and offers one-shot commands to inspect
// markets and portfolios and to build transaction payloads.
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

	"github.com/sebikillmachin/SUI/internal/app"
	"github.com/sebikillmachin/SUI/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewCLI().root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// CLI is the Cobra-based command-line interface.
type CLI struct {
	root       *cobra.Command
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewCLI sets up the CLI.
func NewCLI() *CLI {
	cli := &CLI{}
	cli.root = &cobra.Command{
		Use:           "suimarket",
		Short:         "Client for the on-chain binary prediction market",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.root.PersistentFlags().StringVar(&cli.configPath, "config", "",
		"path to a TOML configuration file (SUIMARKET_* variables apply on top)")

	cli.root.AddCommand(
		cli.serveCmd(),
		cli.marketsCmd(),
		cli.portfolioCmd(),
		cli.buildCmd(),
		cli.sealSecretCmd(),
	)
	return cli
}

// load reads and validates the configuration and sets up a JSON logger on w
// at the configured level.
func (cli *CLI) load(w io.Writer) error {
	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return fmt.Errorf("load config %q: %w", cli.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	cli.logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(cli.logger)
	cli.cfg = cfg
	return nil
}

func (cli *CLI) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and WebSocket push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.load(os.Stdout); err != nil {
				return err
			}
			cli.logger.Info("suimarket starting",
				slog.String("config", cli.configPath),
				slog.Any("settings", config.RedactedConfig(cli.cfg)),
			)

			application := app.New(cli.cfg, cli.logger)
			defer application.Close()

			err := application.Serve(cmd.Context())
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			cli.logger.Info("suimarket stopped")
			return nil
		},
	}
}

// withDeps wires the dependencies for a one-shot command. Logs go to stderr
// so stdout carries only the command's JSON output.
func (cli *CLI) withDeps(cmd *cobra.Command, run func(context.Context, *app.Dependencies) error) error {
	if err := cli.load(os.Stderr); err != nil {
		return err
	}
	application := app.New(cli.cfg, cli.logger)
	defer application.Close()

	deps, err := application.Wire(cmd.Context())
	if err != nil {
		return err
	}
	return run(cmd.Context(), deps)
}
