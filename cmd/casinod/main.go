// Command casinod serves the provably fair round engine and its offline tools.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/pf-casino-engine/internal/api"
	"github.com/MJE43/pf-casino-engine/internal/config"
	"github.com/MJE43/pf-casino-engine/internal/logger"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.buildTime=...".
var (
	version   = ""
	commit    = ""
	buildTime = ""
)

type rootOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func main() {
	if version != "" {
		api.EngineVersion = version
	}
	if commit != "" {
		api.GitCommit = commit
	}
	if buildTime != "" {
		api.BuildTime = buildTime
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "casinod",
		Short:         "Provably fair round engine",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "write JSON logs")

	cmd.AddCommand(
		newServeCmd(opts),
		newVerifyCmd(opts),
		newSimulateCmd(opts),
		newAutoplayCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the config and builds the logger. Logs go to stderr so that
// command output on stdout stays machine readable.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Options{
		Level:      level,
		Writer:     os.Stderr,
		TimeFormat: time.RFC3339,
		JSON:       cfg.Log.JSON || o.logJSON,
	})
	return cfg, log, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), api.GetVersionInfo())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
