package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newCommitCmd(a *app) *cobra.Command {
	var (
		messages []string
		file     string
		amend    bool
	)
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record the staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			message := strings.Join(messages, "\n\n")
			if file != "" {
				data, err := readMessage(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				message = data
			}
			s, _, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Commit(cmd.Context(), message, amend); err != nil {
				return fmt.Errorf("commit: %w", err)
			}
			if amend {
				fmt.Fprintln(a.out, "amended HEAD")
			} else {
				fmt.Fprintln(a.out, "committed")
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "commit message; repeated flags become paragraphs")
	cmd.Flags().StringVarP(&file, "file", "F", "", "read the commit message from a file, - for stdin")
	cmd.Flags().BoolVar(&amend, "amend", false, "replace the tip of the current branch")
	return cmd
}

func readMessage(stdin io.Reader, file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read message: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	return string(data), nil
}
