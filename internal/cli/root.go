package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feewatch/internal/app"
	"feewatch/internal/config"
	"feewatch/internal/logging"
)

// rootOptions carries the persistent flags and the lazily built application.
type rootOptions struct {
	configPath string
	logLevel   string
	app        *app.App
}

// application loads configuration and logging on first use. Commands that do
// not touch the collector, such as version, never call it.
func (o *rootOptions) application(cmd *cobra.Command) (*app.App, error) {
	if o.app != nil {
		return o.app, nil
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	o.app = app.NewApp(cfg, logger)
	o.app.Stdout = cmd.OutOrStdout()
	return o.app, nil
}

// NewRootCommand assembles the feewatch command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "feewatch",
		Short:         "Record bitcoin fee estimates and mempool congestion snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level defined in config")

	root.AddCommand(
		newRunCommand(opts),
		newShowCommand(opts),
		newExportCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
