package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-review/internal/git"
)

func newRemoteCmd(a *app, name string) *cobra.Command {
	short := "Fast-forward the current branch from its upstream"
	if name == "push" {
		short = "Push the current branch to its upstream"
	}
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			op := s.Update
			if name == "push" {
				op = s.Push
			}
			if err := op(cmd.Context()); err != nil {
				if git.IsUnsupported(err) {
					return fmt.Errorf("%s is not available with the %s backend", name, a.cfg.Backend)
				}
				return fmt.Errorf("%s: %w", name, err)
			}
			fmt.Fprintf(a.out, "%s: done\n", name)
			return nil
		},
	}
}

func newBranchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "branch [name]",
		Short: "List local branches or switch to one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := svc.SwitchBranch(cmd.Context(), args[0]); err != nil {
					if git.IsUnsupported(err) {
						return fmt.Errorf("switching branches is not available with the %s backend", a.cfg.Backend)
					}
					return err
				}
				fmt.Fprintf(a.out, "switched to %s\n", args[0])
				return nil
			}
			branches, head, err := svc.LocalBranchNames(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range branches {
				mark := " "
				if b == head {
					mark = "*"
				}
				fmt.Fprintf(a.out, "%s %s\n", mark, b)
			}
			return nil
		},
	}
}
