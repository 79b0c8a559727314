package cmd

import (
	"log/slog"
	"os"

	"github.com/inkstudio/inkstudio/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions carries the settings resolved before any subcommand runs
type rootOptions struct {
	configPath string
	logLevel   string
	profile    string
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "inkstudio",
		Short: "AI tattoo design studio",
		Long: `Inkstudio analyzes, recreates, refines and generates tattoo designs with
Google's generative models.

Run "inkstudio serve" for the browser studio, or use the subcommands to work
with designs and the saved library from the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			slog.SetDefault(cfg.Log.NewLogger(os.Stderr))
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default "+config.DefaultPath+" when present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "cli", "Library profile the CLI reads and writes")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newEditCmd(opts))
	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newVideoCmd(opts))
	cmd.AddCommand(newLibraryCmd(opts))

	return cmd
}
