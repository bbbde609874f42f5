package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List changed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			entries := s.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(a.out, "nothing to review, working tree clean")
				return nil
			}
			for _, e := range entries {
				name := e.Path
				if e.OrigPath != "" {
					name = e.OrigPath + " -> " + e.Path
				}
				fmt.Fprintf(a.out, "%s %s (%s)\n", e.Code(), name, e.Description())
			}
			return nil
		},
	}
}
