package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fileShort = map[string]string{
	"add":    "Stage whole files, including new and deleted ones",
	"revert": "Drop the working tree changes of whole files",
	"rm":     "Remove files from the index and the working tree",
}

func newFileCmd(a *app, name string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <path>...",
		Short: fileShort[name],
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			op := s.AddFiles
			switch name {
			case "revert":
				op = s.RevertFiles
			case "rm":
				op = s.DeleteFiles
			}
			if err := op(cmd.Context(), args); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fmt.Fprintf(a.out, "%s: %d file(s)\n", name, len(args))
			return nil
		},
	}
}
