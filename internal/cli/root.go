package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"budgeteer/internal/budget"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
	"budgeteer/internal/store"
)

// Env is what the commands run against.
type Env struct {
	Session *services.Session
	Backend store.Backend
	Logger  *log.Logger
	Close   func() error
}

// Opener builds the Env on first use.
type Opener func(ctx context.Context) (*Env, error)

// Option configures the command tree.
type Option func(*app)

// WithOpener replaces the configuration-driven Env, mostly for tests.
func WithOpener(o Opener) Option {
	return func(a *app) { a.open = o }
}

// WithClock sets the clock that picks the default month.
func WithClock(now func() time.Time) Option {
	return func(a *app) { a.now = now }
}

// WithOutput sets where command output goes, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(a *app) { a.out = w }
}

type app struct {
	open Opener
	now  func() time.Time
	out  io.Writer
	env  *Env
}

func (a *app) session() *services.Session { return a.env.Session }

func (a *app) engine() *budget.Engine { return a.env.Session.Engine() }

// do runs fn and persists whatever it changed.
func (a *app) do(cmd *cobra.Command, kind string, fn func(*budget.Engine) error) error {
	return a.session().Do(cmd.Context(), kind, fn)
}

func newApp(opts []Option) *app {
	a := &app{open: DefaultOpener, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *app) close() error {
	if a.env == nil || a.env.Close == nil {
		return nil
	}
	err := a.env.Close()
	a.env = nil
	return err
}

// New returns the budgeteer root command. The Env opens before the first
// command runs and stays open; Execute also closes it.
func New(opts ...Option) *cobra.Command {
	return newApp(opts).root()
}

// Execute runs the command line in args and releases the Env afterwards.
func Execute(ctx context.Context, args []string, opts ...Option) error {
	a := newApp(opts)
	topLevel := a.root()
	topLevel.SetArgs(args)
	err := topLevel.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

func (a *app) root() *cobra.Command {
	topLevel := newTree(a)
	topLevel.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if a.env != nil {
			return nil
		}
		env, err := a.open(cmd.Context())
		if err != nil {
			return err
		}
		a.env = env
		return nil
	}
	addShell(topLevel, a)
	if a.out != nil {
		topLevel.SetOut(a.out)
	}
	return topLevel
}

// newTree builds the commands shared by the top level and the shell.
func newTree(a *app) *cobra.Command {
	topLevel := &cobra.Command{
		Use:   "budgeteer",
		Short: "Zero-based budgeting: give every dollar a job.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
	}
	addMonth(topLevel, a)
	addAssign(topLevel, a)
	addMove(topLevel, a)
	addGroup(topLevel, a)
	addItem(topLevel, a)
	addAccount(topLevel, a)
	addPost(topLevel, a)
	addTransfer(topLevel, a)
	addTx(topLevel, a)
	addImport(topLevel, a)
	addAudit(topLevel, a)
	return topLevel
}

// DefaultOpener wires the Env from .env, config files and the environment.
func DefaultOpener(ctx context.Context) (*Env, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg, log.ComponentCLI)

	res, err := InitBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	pub, closePub := InitPublisher(logger, cfg)

	sessionOpts := []services.SessionOption{services.WithLogger(logger)}
	if pub != nil {
		sessionOpts = append(sessionOpts, services.WithPublisher(pub))
	}
	s, err := services.Open(ctx, res.Backend, cfg.UserID, sessionOpts...)
	if err != nil {
		return nil, errors.Join(err, closePub(), res.Cleanup())
	}
	return &Env{
		Session: s,
		Backend: res.Backend,
		Logger:  logger,
		Close: func() error {
			return errors.Join(closePub(), res.Cleanup())
		},
	}, nil
}
