// Package cli implements the stash command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/stash/internal/annotate"
	"github.com/and161185/stash/internal/config"
	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/repository/kv"
	"github.com/and161185/stash/internal/service"
	"github.com/and161185/stash/internal/store"
)

// BuildInfo is stamped by the linker.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Option customizes the wiring, mainly for tests.
type Option func(*app)

// WithBackend uses b instead of opening the configured store. b is not closed.
func WithBackend(b store.Backend) Option { return func(a *app) { a.backend = b; a.ownsBackend = false } }

// WithAnnotator replaces the configured annotation client.
func WithAnnotator(an service.Annotator) Option { return func(a *app) { a.annotator = an } }

// WithLatency overrides the simulated latency.
func WithLatency(l service.Latency) Option { return func(a *app) { a.latency = &l } }

// app is the per-invocation wiring shared by subcommands.
type app struct {
	build BuildInfo

	configPath string
	storeFlag  string
	dsnFlag    string
	verbose    bool

	cfg         *config.Config
	log         *zap.Logger
	backend     store.Backend
	ownsBackend bool
	annotator   service.Annotator
	latency     *service.Latency

	auth  *service.AuthServiceImpl
	links *service.LinkServiceImpl
}

// NewRootCmd builds the stash command tree. The returned func releases the
// store and flushes the logger; call it after Execute.
func NewRootCmd(build BuildInfo, opts ...Option) (*cobra.Command, func()) {
	a := &app{build: build, ownsBackend: true}
	for _, o := range opts {
		o(a)
	}

	root := &cobra.Command{
		Use:   "stash",
		Short: "Save links with AI-generated titles, summaries and tags",
		Long: `stash keeps a personal collection of links. Each link you add is annotated
with a title, a short summary and a few tags by a language model.

Quick start:
  stash signup --email you@example.com --password secret
  stash add https://go.dev/blog/
  stash list`,
		Version:           fmt.Sprintf("%s (commit: %s, built: %s)", build.Version, build.Commit, build.Date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&a.storeFlag, "store", "", "store driver: sqlite, postgres or memory")
	pf.StringVar(&a.dsnFlag, "dsn", "", "sqlite file path or postgres connection string")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.signupCmd(),
		a.signinCmd(),
		a.signoutCmd(),
		a.whoamiCmd(),
		a.addCmd(),
		a.listCmd(),
		a.rmCmd(),
		a.versionCmd(),
	)
	return root, a.teardown
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, build BuildInfo, args []string, stdout, stderr io.Writer) int {
	root, done := NewRootCmd(build)
	defer done()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	log, err := newLogger(a.verbose, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.storeFlag != "" {
		cfg.Store.Driver = a.storeFlag
	}
	if a.dsnFlag != "" {
		cfg.Store.DSN = a.dsnFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.backend == nil {
		b, err := openBackend(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		a.backend = b
	}
	a.log.Debug("store ready", zap.String("driver", cfg.Store.Driver))

	lat := service.Latency{}
	if cfg.SimulateLatency {
		lat = service.DefaultLatency()
	}
	if a.latency != nil {
		lat = *a.latency
	}

	s := store.New(a.backend)
	a.auth = service.NewAuthService(kv.NewUserRepo(s), kv.NewSessionRepo(s), lat, a.log)
	a.links = service.NewLinkService(kv.NewLinkRepo(s), lazyAnnotator{a}, lat, a.log)
	return nil
}

func (a *app) teardown() {
	if a.backend != nil && a.ownsBackend {
		if err := a.backend.Close(); err != nil && a.log != nil {
			a.log.Warn("close store", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// lazyAnnotator builds the annotation client on first use so commands that
// never annotate do not need an API key.
type lazyAnnotator struct{ a *app }

func (l lazyAnnotator) Annotate(ctx context.Context, url string) (model.Annotation, error) {
	if l.a.annotator == nil {
		acfg := l.a.cfg.AnnotateConfig()
		var fetcher annotate.Fetcher
		if acfg.ExcerptChars > 0 {
			fetcher = annotate.NewPageFetcher(l.a.cfg.Annotator.FetchTimeout, l.a.cfg.Annotator.MaxPageBytes)
		}
		c, err := annotate.New(acfg, fetcher, l.a.log)
		if err != nil {
			return model.Annotation{}, fmt.Errorf("%w (set STASH_API_KEY or annotator.api_key)", err)
		}
		l.a.annotator = c
	}
	return l.a.annotator.Annotate(ctx, url)
}

// session restores the signed-in user. A failed restore is logged and treated as signed out.
func (a *app) session(ctx context.Context) *model.User {
	u, err := a.auth.CurrentSession(ctx)
	if err != nil {
		a.log.Warn("restore session", zap.Error(err))
		return nil
	}
	return u
}

func (a *app) requireSession(ctx context.Context) (*model.User, error) {
	u := a.session(ctx)
	if u == nil {
		return nil, errs.ErrNotSignedIn
	}
	return u, nil
}

// describe maps domain errors to messages for the terminal.
func describe(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotSignedIn):
		return "not signed in; run `stash signin` or `stash signup` first"
	case errors.Is(err, errs.ErrDuplicateAccount):
		return "an account with this email already exists"
	case errors.Is(err, errs.ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, errs.ErrDuplicateLink):
		return "this link is already in your stash"
	case errors.Is(err, errs.ErrMalformedAnnotation):
		return "the annotation service returned incomplete data; try again"
	case errors.Is(err, errs.ErrAnnotationUnavailable):
		return fmt.Sprintf("could not annotate the link: %v", err)
	default:
		return err.Error()
	}
}
