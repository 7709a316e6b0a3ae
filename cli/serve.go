package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"vidtrack/api"
	"vidtrack/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the job controller over HTTP for a browser front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController()
		if err != nil {
			return err
		}

		gin.SetMode(gin.ReleaseMode)
		router := api.SetupRouter(ctrl, cfg)
		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Logger.Infow("Server starting", logger.FieldAddress, srv.Addr, "backend", cfg.BackendURL)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			ctrl.Close()
			return errors.Wrap(err, "listen")
		case <-ctx.Done():
		}

		// Restore default behavior on the interrupt signal.
		stop()
		logger.Logger.Infow("Shutting down gracefully, press Ctrl+C again to force")

		// Closing the controller first ends open event streams.
		ctrl.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server forced to shutdown")
		}

		logger.Logger.Infow("Server exiting")
		return nil
	},
}
