package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"recount/internal/cli"
	apphttp "recount/internal/http"
	"recount/internal/log"
	"recount/internal/session"
	"recount/internal/speech"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var withStdin bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a counting session behind the JSON API",
		Long: `Start a session on the configured backend and serve it over HTTP.
With --stdin, lines read from standard input are also fed to the session as
recognized utterances.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(effectiveLevel(cfg), nil)

			ctx, stop := cli.GracefulShutdown(cmd.Context(), logger)
			defer stop()

			sess, res, err := openSession(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := res.Close(); err != nil {
					logger.Error("Backend cleanup failed", log.FieldError, err)
				}
			}()

			srv := apphttp.NewServer(":"+cfg.Port, sess, res.Backend, logger)
			srv.ReadTimeout = 10 * time.Second
			srv.WriteTimeout = 10 * time.Second
			srv.IdleTimeout = 60 * time.Second
			srv.MaxHeaderBytes = 1 << 16

			var listener *session.Listener
			if withStdin {
				listener = session.NewListener(sess, logger, nil)
				if err := listener.Start(ctx, speech.Lines(ctx, os.Stdin)); err != nil {
					return err
				}
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting recount server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case serveErr = <-errCh:
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server shutdown error", log.FieldError, err)
			}
			if listener != nil {
				_ = listener.Stop(shutdownCtx)
			}
			sess.End(shutdownCtx)

			logger.Info("Server stopped gracefully")
			return serveErr
		},
	}

	cmd.Flags().BoolVar(&withStdin, "stdin", false, "also read utterances from standard input")
	return cmd
}
