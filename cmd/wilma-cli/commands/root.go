package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"wilma-backend/internal/components/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

var (
	configPath string
	verbose    bool
	dumpDir    string

	otelProviders telemetry.Telemetry
)

// setupOtel exports traces and metrics when a telemetry.json5 is found,
// every run is tagged with the subcommand it ran.
func setupOtel(cmd *cobra.Command) {
	res, err := telemetry.Resource("wilma-cli", attribute.String("cli.command", cmd.Name()))
	if err != nil {
		slog.Warn("failed to describe otel resource", "err", err.Error())
		return
	}
	otelProviders, err = telemetry.SetupFromEnv(cmd.Context(), res)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to setup telemetry", "err", err.Error())
	}
}

var rootCmd = &cobra.Command{
	Use:   "wilma-cli",
	Short: "wilma-cli is a CLI for signing into Wilma and validating its scraping.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
		setupOtel(cmd)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file with the portal url and credentials.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug information and dump every http message.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump-dir", ".dev/resty/wilma", "The directory http messages are dumped to with --verbose.")
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	code := 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}
	if err := otelProviders.Shutdown(context.Background()); err != nil {
		slog.Warn("failed to flush telemetry", "err", err.Error())
	}
	return code
}
