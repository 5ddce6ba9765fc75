package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retailbench/internal/config"
	"retailbench/internal/logger"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	ConfigPath string
	LogMode    string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "retailbench",
		Short:         "Load retail product-matching and search-relevance corpora",
		Long:          "Unifies the abt_buy, cikm16, esci and wdc datasets into six canonical tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config path (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.LogMode, "log-mode", "", "log mode: dev|prod (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logs")

	cmd.AddCommand(newLoadCommand(opts))
	cmd.AddCommand(newConvertWDCCommand(opts))
	cmd.AddCommand(newSniffCommand(opts))

	return cmd
}

// newLogger builds the process logger. The --log-mode flag beats the mode
// from the config file.
func (o *rootOptions) newLogger(cfg config.Config) (*zap.Logger, error) {
	mode := cfg.LogMode
	if o.LogMode != "" {
		mode = o.LogMode
	}
	return logger.New(mode, o.Verbose)
}
