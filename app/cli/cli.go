// Package cli wires configuration, logging, the index and the session into
// the mdq command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noelzubin/mdq/app/tui"
	"github.com/noelzubin/mdq/editor"
	"github.com/noelzubin/mdq/search/bleve_indexer"
	"github.com/noelzubin/mdq/utils"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	verbose int
	out     io.Writer
	errOut  io.Writer
	config  *utils.Config
	log     *logrus.Logger
}

// NewRootCmd builds the mdq command tree. Normal output goes to out,
// per-file failures and logs to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: utils.NewViper(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "mdq",
		Short: "Search Markdown notes by text, title, tags and frontmatter.",
		Long: `Index Markdown notes with YAML frontmatter and query them interactively.

  mdq update ~/notes
  mdq query 'tag:go AND (bleve OR "full text")'
  mdq`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd.Context(), "")
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.CountVarP(&a.verbose, "verbose", "v", "more output; repeat for debug logs")
	flags.StringP("db-path", "d", "", "index directory (default ~/.mdq-data)")
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ~/.config/mdq/config.yaml)")
	_ = a.v.BindPFlag("db_path", flags.Lookup("db-path"))

	root.AddCommand(
		&cobra.Command{
			Use:   "update <paths...>",
			Short: "Index every note below the given paths.",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runUpdate(cmd.Context(), args)
			},
		},
		&cobra.Command{
			Use:   "query <string>",
			Short: "Start a session with a first query already evaluated.",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runSession(cmd.Context(), strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "watch <paths...>",
			Short: "Index the given paths and keep the index in sync until interrupted.",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runWatch(cmd.Context(), args)
			},
		},
	)

	return root
}

// prepare sets up the process before anything else, then loads the config.
func (a *app) prepare() error {
	a.log = utils.Setup()
	config, err := utils.NewConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.config = config
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// logger configures the process logger and returns an entry for component.
// Command line modes log to errOut; the session logs to the configured file.
func (a *app) logger(toFile bool, component string) (*logrus.Entry, io.Closer, error) {
	opts := utils.LogOptions{Level: a.config.LogLevel, Verbosity: a.verbose, Out: a.errOut}
	if toFile {
		opts.Out = nil
		opts.LogFile = a.config.LogFile
	}
	closer, err := utils.ConfigureLogger(a.log, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	return a.log.WithField("component", component), closer, nil
}

func (a *app) updater(log *logrus.Entry) (*bleve_indexer.Updater, error) {
	w, err := bleve_indexer.OpenWriter(a.config.DBPath)
	if err != nil {
		return nil, err
	}
	return &bleve_indexer.Updater{
		Writer:     w,
		Extensions: a.config.Extensions,
		Verbose:    a.verbose > 0,
		Out:        a.out,
		Err:        a.errOut,
		Log:        log,
	}, nil
}

func (a *app) runUpdate(ctx context.Context, roots []string) (err error) {
	log, closer, err := a.logger(false, "updater")
	if err != nil {
		return err
	}
	defer closer.Close()

	u, err := a.updater(log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := u.Writer.Close(); err == nil {
			err = cerr
		}
	}()

	stats, err := u.Update(ctx, roots)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"indexed": stats.Indexed,
		"failed":  stats.Failed,
		"removed": stats.Removed,
	}).Info("update finished")
	return nil
}

func (a *app) runWatch(ctx context.Context, roots []string) (err error) {
	log, closer, err := a.logger(false, "watcher")
	if err != nil {
		return err
	}
	defer closer.Close()

	u, err := a.updater(log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := u.Writer.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := u.Update(ctx, roots); err != nil {
		return err
	}
	return u.Watch(ctx, roots, bleve_indexer.DefaultDebounce)
}

func (a *app) runSession(ctx context.Context, startQuery string) error {
	log, closer, err := a.logger(true, "session")
	if err != nil {
		return err
	}
	defer closer.Close()

	reader, err := bleve_indexer.OpenReader(a.config.DBPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	m := tui.New(tui.Options{
		Searcher: reader,
		Editor:   editor.Editor{EditorCmd: a.config.Editor, ViewerCmd: a.config.Viewer},
		Limit:    a.config.ResultLimit,
		Query:    startQuery,
		Log:      log,
	})

	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}
