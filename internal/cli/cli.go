// Package cli implements the plot-digitizer command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"plot-digitizer/internal/config"
	"plot-digitizer/internal/logging"
	"plot-digitizer/internal/reportstore"
	"plot-digitizer/internal/version"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const appName = "plot-digitizer"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	out        io.Writer
	configPath string
	verbose    bool
}

// New creates a CLI writing results to out and logs to logw.
func New(out, logw io.Writer) *CLI {
	return &CLI{
		Logger:     logging.New(logw, log.InfoLevel),
		Config:     config.Default(),
		out:        out,
		configPath: config.DefaultPath(),
	}
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return New(os.Stdout, os.Stderr).RootCommand().ExecuteContext(ctx)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Digitize data points from scanned plots",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.SetOut(c.out)
	root.SetVersionTemplate(version.Current().String() + "\n")

	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "config file (TOML)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.importCommand())
	root.AddCommand(c.transformCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.reportsCommand())
	root.AddCommand(c.versionCommand())

	return root
}

func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	level := logging.ParseLevel(cfg.LogLevel)
	if c.verbose {
		level = log.DebugLevel
	}
	c.Logger.SetLevel(level)
	cmd.SetContext(logging.WithLogger(cmd.Context(), c.Logger))
	c.Logger.Debug("config loaded", "path", c.configPath, "store", cfg.ReportStore)
	return nil
}

func (c *CLI) openStore(ctx context.Context) (reportstore.Store, error) {
	return reportstore.Open(ctx, c.Config)
}
