package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-review/internal/review"
	"github.com/thiagokokada/gitk-review/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the status again whenever the working copy changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, svc, err := a.session(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			a.printStatus(s)
			w := watch.New(svc.RepoPath(), a.cfg.WatchDebounce, func() {
				if err := s.Refresh(ctx); err != nil {
					slog.Error("refresh", slog.Any("error", err))
					return
				}
				a.printStatus(s)
			})
			if err := w.Start(); err != nil {
				return err
			}
			<-ctx.Done()
			if err := w.Close(); err != nil {
				return fmt.Errorf("stop watcher: %w", err)
			}
			return nil
		},
	}
}

func (a *app) printStatus(s *review.Session) {
	entries := s.Entries()
	fmt.Fprintf(a.out, "-- %d changed file(s)\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s %s\n", e.Code(), e.Path)
	}
}
