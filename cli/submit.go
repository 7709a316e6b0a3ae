package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"vidtrack/job"
	"vidtrack/render"
)

var submitCmd = &cobra.Command{
	Use:   "submit <url>",
	Short: "Submit a video URL and wait for its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := track(ctx, ctrl, args[0])
		render.State(cmd.OutOrStdout(), s)
		if err != nil {
			return err
		}
		if s.Phase != job.PhaseSucceeded {
			return errors.Newf("job %s", s.Phase)
		}
		return nil
	},
}

// track submits videoURL, prints a line for every status change and returns
// the final snapshot.
func track(ctx context.Context, ctrl *job.Controller, videoURL string) (job.ViewState, error) {
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var last string
		for s := range updates {
			line := render.StatusLine(s)
			if line != last && s.Phase != job.PhaseIdle {
				pterm.Info.Println(line)
				last = line
			}
			if s.Phase == job.PhaseSucceeded || s.Phase == job.PhaseFailed {
				return
			}
		}
	}()

	if err := ctrl.Submit(ctx, videoURL); err != nil {
		unsubscribe()
		<-done
		return ctrl.State(), nil
	}

	s, err := ctrl.Wait(ctx)
	if err != nil && s.Phase != job.PhaseFailed {
		ctrl.Stop()
		unsubscribe()
		<-done
		return ctrl.State(), errors.Wrap(err, "interrupted")
	}
	<-done
	return s, nil
}
