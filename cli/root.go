// Package cli wires configuration, logging and the job controller into cobra commands.
package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"vidtrack/backend"
	"vidtrack/config"
	"vidtrack/job"
	"vidtrack/logger"
)

// Version is overridden at build time with -ldflags "-X vidtrack/cli.Version=...".
var Version = "dev"

var (
	cfg      *config.Config
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "vidtrack",
	Short: "Submit videos for transcription and track them to completion",
	Long: `vidtrack submits a video URL to the processing service, polls the job
until it finishes and shows the transcription and extracted action points.

Examples:
  vidtrack submit https://example.com/meeting.mp4
  vidtrack serve
  vidtrack console`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		cfg = loaded
		if err := logger.Initialize(jsonLogs || cfg.JSONLogs); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit structured JSON logs")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newController builds a controller talking to the configured backend.
func newController() (*job.Controller, error) {
	client, err := backend.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize backend client")
	}
	ctrl, err := job.NewController(cfg, client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize job controller")
	}
	return ctrl, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("vidtrack " + Version)
	},
}
