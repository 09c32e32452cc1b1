package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/boozedog/devserve/internal/config"
	"github.com/boozedog/devserve/internal/web"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "devserve [port]",
	Short: "Local static server for dashboard development",
	Long: `Serves the directory containing the devserve binary over plain HTTP with
permissive CORS headers and a console access log. Intended for previewing the
dashboard locally; do not expose it to a network you don't trust.

The port defaults to 8000, or to [server] port in devserve.toml next to the
binary.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.OutOrStdout(), nil)))
	},
	RunE: runServe,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "devserve:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := config.ProgramDir()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root, args)
	if err != nil {
		return err
	}

	return serve(cfg, cmd.OutOrStdout())
}

func loadConfig(root string, args []string) (*config.Config, error) {
	cfg, err := config.Load(root, args)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// serve blocks until SIGINT or SIGTERM, then shuts the server down.
// A second signal during the shutdown grace period kills the process.
func serve(cfg *config.Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go stopOnDone(ctx, stop)

	srv := web.NewServer(cfg, out)
	return srv.ListenAndServe(ctx)
}

// stopOnDone restores default signal handling once the first signal has
// been received.
func stopOnDone(ctx context.Context, stop context.CancelFunc) {
	<-ctx.Done()
	stop()
}
