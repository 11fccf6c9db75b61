package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/mfe"
	"github.com/GoCodeAlone/mfe/logging"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

// NewRootCommand creates the root command for the mfectl application
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mfectl",
		Short: "mfectl - Tools for the micro-frontend lifecycle runtime",
		Long: `mfectl works with the micro-frontend lifecycle runtime.
It formats and decodes coded error messages, inspects which units a
navigation would load, mount or unmount, and serves a read-only HTTP view
of a unit manifest.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "runtime config file (YAML or TOML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(NewFormatCommand(opts))
	cmd.AddCommand(NewDecodeCommand())
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), PrintVersion())
		},
	}
}

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("mfectl v%s (commit: %s, built on: %s)", Version, Commit, Date)
}

// loadConfig reads the runtime config and applies the --log-level override.
func (o *rootOptions) loadConfig() (*mfe.Config, error) {
	var paths []string
	if o.configFile != "" {
		paths = append(paths, o.configFile)
	}
	cfg, err := mfe.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func (o *rootOptions) logger(cmd *cobra.Command, cfg *mfe.Config) *logging.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
}
