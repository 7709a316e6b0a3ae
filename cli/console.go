package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidtrack/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console: submit, watch and stop jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return console.New(ctrl, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
	},
}
