// Package cmd implements the gitk-review command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thiagokokada/gitk-review/internal/buildinfo"
	"github.com/thiagokokada/gitk-review/internal/config"
	"github.com/thiagokokada/gitk-review/internal/git"
	gitbackend "github.com/thiagokokada/gitk-review/internal/git/backend"
	"github.com/thiagokokada/gitk-review/internal/highlight"
	"github.com/thiagokokada/gitk-review/internal/review"
)

func Run() error {
	return newRootCmd(os.Stdout, os.Stderr).Execute()
}

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: config.New(), out: out, errOut: errOut}
	defaults := config.Defaults()

	root := &cobra.Command{
		Use:           "gitk-review",
		Short:         "Review and partially stage uncommitted changes",
		Long:          "gitk-review shows the changes of a git working copy and stages, unstages or discards them file by file, hunk by hunk or line by line.",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./"+config.LocalFile+" or $XDG_CONFIG_HOME/gitk-review/config.yaml)")
	flags.StringP("repo", "C", defaults.Repo, "path to the repository")
	flags.String("backend", defaults.Backend, "git backend: cli or native")
	flags.IntP("context", "U", defaults.ContextLines, "context lines around changes, negative for the whole file")
	flags.Bool("paired-lines", defaults.PairedLines, "select a removed line together with the added line replacing it")
	flags.String("theme", defaults.Theme, "color theme: auto, light, or dark")
	flags.Bool("syntax", defaults.Syntax, "syntax highlight diffs")
	flags.String("color", defaults.Color, "colorize output: auto, always, or never")
	flags.BoolP("verbose", "v", defaults.Verbose, "enable verbose logging")
	for key, flag := range map[string]string{
		"repo":          "repo",
		"backend":       "backend",
		"context_lines": "context",
		"paired_lines":  "paired-lines",
		"theme":         "theme",
		"syntax":        "syntax",
		"color":         "color",
		"verbose":       "verbose",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newStatusCmd(a),
		newDiffCmd(a),
		newApplyCmd(a, "stage"),
		newApplyCmd(a, "unstage"),
		newApplyCmd(a, "discard"),
		newCommitCmd(a),
		newFileCmd(a, "add"),
		newFileCmd(a, "revert"),
		newFileCmd(a, "rm"),
		newRemoteCmd(a, "pull"),
		newRemoteCmd(a, "push"),
		newBranchCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) init() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	cfg, err := config.Load(a.v, a.cfgFile, wd)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level})))
	if used := a.v.ConfigFileUsed(); used != "" {
		slog.Debug("config loaded", slog.String("file", used))
	}
	return nil
}

func (a *app) service() (*git.Service, error) {
	return git.Open(a.cfg.Repo, gitbackend.Kind(a.cfg.Backend))
}

// session opens the repository and loads its status.
func (a *app) session(ctx context.Context) (*review.Session, *git.Service, error) {
	svc, err := a.service()
	if err != nil {
		return nil, nil, err
	}
	s := review.New(svc,
		review.WithContextLines(a.cfg.ContextLines),
		review.WithPairing(a.cfg.PairedLines),
	)
	if err := s.Refresh(ctx); err != nil {
		return nil, nil, errors.Join(err, s.Close())
	}
	return s, svc, nil
}

func (a *app) renderer() highlight.Renderer {
	color := false
	switch a.cfg.Color {
	case "always":
		color = true
	case "auto":
		if f, ok := a.out.(*os.File); ok {
			color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	r := highlight.Renderer{Color: color, Syntax: a.cfg.Syntax}
	if color {
		r.Palette = highlight.Resolve(highlight.PreferenceFromString(a.cfg.Theme))
	}
	return r
}
