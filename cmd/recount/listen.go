package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recount/internal/cli"
	"recount/internal/log"
	"recount/internal/session"
	"recount/internal/speech"
)

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Count from utterances read line by line on standard input",
		Long: `Run a session fed by standard input, one utterance per line, as produced
by a speech recognizer piped into recount. The session ends at EOF or on
interrupt.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(effectiveLevel(cfg), os.Stderr)

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

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TitleStyle.Render("Listening. Say \"count 3 PET\", \"lock out glass\", \"lock screen\"..."))
			fmt.Fprintln(out, cli.FormatView(sess.View()))

			listener := session.NewListener(sess, logger, func(text string, o session.Outcome) {
				fmt.Fprintln(out, cli.FormatOutcome(text, o))
			})
			if err := listener.Start(ctx, speech.Lines(ctx, cmd.InOrStdin())); err != nil {
				return err
			}

			select {
			case <-listener.Done():
			case <-ctx.Done():
			}

			endCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = listener.Stop(endCtx)
			sess.End(endCtx)

			snap := sess.Snapshot()
			fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Session ended: %d counted, running total %d", snap.SessionTotal, snap.PersistentTotal)))
			return nil
		},
	}
}
