package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/gitk-review/internal/diff"
	"github.com/thiagokokada/gitk-review/internal/patch"
	"github.com/thiagokokada/gitk-review/internal/review"
	"github.com/thiagokokada/gitk-review/internal/selection"
)

func newDiffCmd(a *app) *cobra.Command {
	var staged bool
	cmd := &cobra.Command{
		Use:   "diff <path>",
		Short: "Show the changes of a file with line addresses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := diff.Unstaged
			if staged {
				mode = diff.Staged
			}
			s, err := a.reviewFile(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			defer s.Close()
			return a.renderer().Render(a.out, s.Snapshot(), s.IsSelected)
		},
	}
	cmd.Flags().BoolVar(&staged, "staged", false, "show changes between HEAD and the index")
	return cmd
}

// reviewFile opens a session and loads the diff of path.
func (a *app) reviewFile(ctx context.Context, path string, mode diff.Mode) (*review.Session, error) {
	s, _, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.SetPatchMode(mode); err != nil {
		return nil, closeWith(s, err)
	}
	if err := s.SelectFile(path); err != nil {
		return nil, closeWith(s, err)
	}
	s.Wait()
	if s.State() != review.Reviewing {
		err := s.LastError()
		if err == nil {
			err = fmt.Errorf("diff of %s not loaded", path)
		}
		return nil, closeWith(s, err)
	}
	return s, nil
}

func closeWith(s *review.Session, err error) error {
	_ = s.Close()
	return err
}

func newApplyCmd(a *app, name string) *cobra.Command {
	var (
		lines  []string
		chunks []int
		all    bool
		show   bool
	)
	mode := patchModes[name]
	cmd := &cobra.Command{
		Use:   name + " <path>",
		Short: applyShort[name],
		Long: applyShort[name] + ".\n\n" +
			"Lines are addressed as chunk:line, as printed by the diff command.\n" +
			"A range such as 0:1-4 selects lines 1 to 4 of chunk 0.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(lines)
			if err != nil {
				return err
			}
			if !all && len(keys) == 0 && len(chunks) == 0 {
				return fmt.Errorf("nothing selected: use --lines, --chunk or --all")
			}
			s, err := a.reviewFile(cmd.Context(), args[0], mode.SnapshotMode())
			if err != nil {
				return err
			}
			defer s.Close()

			if all {
				if err := s.SelectAll(); err != nil {
					return err
				}
			}
			for _, c := range chunks {
				if err := s.ToggleChunkSelection(c); err != nil {
					return err
				}
			}
			for _, k := range keys {
				if err := s.SelectLine(k.Chunk, k.Line); err != nil {
					return err
				}
			}
			if show {
				if err := a.renderer().Render(a.out, s.Snapshot(), s.IsSelected); err != nil {
					return err
				}
			}
			selected := len(s.Selection())
			if err := s.SubmitSelection(cmd.Context(), mode); err != nil {
				return fmt.Errorf("%s %s: %w", name, args[0], err)
			}
			s.Wait()
			fmt.Fprintf(a.out, "%s: %d line(s) of %s\n", mode, selected, args[0])
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&lines, "lines", "l", nil, "lines to select, as chunk:line or chunk:first-last")
	cmd.Flags().IntSliceVar(&chunks, "chunk", nil, "whole chunks to select")
	cmd.Flags().BoolVar(&all, "all", false, "select every change of the file")
	cmd.Flags().BoolVar(&show, "show", false, "print the diff with the selection before applying")
	return cmd
}

var patchModes = map[string]patch.Mode{
	"stage":   patch.Stage,
	"unstage": patch.Unstage,
	"discard": patch.Discard,
}

var applyShort = map[string]string{
	"stage":   "Stage selected lines of a file",
	"unstage": "Unstage selected lines of a file",
	"discard": "Discard selected working tree lines of a file",
}

// maxRangeLines bounds the lines one chunk:first-last range may address.
const maxRangeLines = 1 << 16

// parseKeys reads chunk:line and chunk:first-last addresses.
func parseKeys(specs []string) ([]selection.Key, error) {
	var keys []selection.Key
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		chunkText, lineText, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("line address %q: want chunk:line", spec)
		}
		chunk, err := strconv.Atoi(chunkText)
		if err != nil || chunk < 0 {
			return nil, fmt.Errorf("line address %q: invalid chunk", spec)
		}
		firstText, lastText, isRange := strings.Cut(lineText, "-")
		first, err := strconv.Atoi(firstText)
		if err != nil || first < 0 {
			return nil, fmt.Errorf("line address %q: invalid line", spec)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(lastText); err != nil || last < first {
				return nil, fmt.Errorf("line address %q: invalid range", spec)
			}
			if last-first >= maxRangeLines {
				return nil, fmt.Errorf("line address %q: range longer than %d lines", spec, maxRangeLines)
			}
		}
		for l := first; l <= last; l++ {
			keys = append(keys, selection.Key{Chunk: chunk, Line: l})
		}
	}
	return keys, nil
}
