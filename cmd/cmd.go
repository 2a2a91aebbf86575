package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"

	"github.com/thiagokokada/gitport/internal/buildinfo"
	gitbackend "github.com/thiagokokada/gitport/internal/git/backend"
	"github.com/thiagokokada/gitport/internal/porting"
)

type Globals struct {
	Repo       string           `short:"C" default:"." env:"GITPORT_REPO" type:"path" help:"Repository to analyze."`
	Backend    string           `default:"cli" enum:"cli,native" env:"GITPORT_BACKEND" help:"Repository backend: cli (git executable) or native (go-git)."`
	Jobs       int              `env:"GITPORT_JOBS" help:"Concurrent patch id computations. Defaults to the number of CPUs."`
	Timeout    time.Duration    `default:"30s" env:"GITPORT_TIMEOUT" help:"Timeout for each patch id computation."`
	Verbose    bool             `short:"v" help:"Enable verbose logging."`
	NoProgress bool             `help:"Do not show progress bars."`
	Version    kong.VersionFlag `help:"Print version information and exit."`
}

type CLI struct {
	Globals `embed:""`

	Count   CountCmd   `cmd:"" help:"Count mainline commits not yet ported to a maintenance branch."`
	List    ListCmd    `cmd:"" help:"List mainline commits not yet ported to a maintenance branch."`
	Reverts RevertsCmd `cmd:"" help:"Show revert commits of a range and whether the reverted commit is in it."`
	Dups    DupsCmd    `cmd:"" help:"Show mainline commits matching maintenance commits by patch id or summary."`
	Resolve ResolveCmd `cmd:"" help:"Show the commits named by hashes, skipping unknown ones and merges."`
}

// runContext is bound to every command's Run method.
type runContext struct {
	ctx    context.Context
	g      *Globals
	stdout io.Writer
	stderr io.Writer
	helper *porting.Helper
}

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// exitCode carries kong's requested exit status (after --help or --version) out of Parse.
type exitCode int

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			code, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			if code != 0 {
				err = fmt.Errorf("exit status %d", code)
			}
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("gitport"),
		kong.Description("Find mainline commits that still need to be ported to a maintenance branch."),
		kong.Vars{"version": buildinfo.String("gitport")},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(exitCode(code)) }),
		kong.ShortUsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	setupLogging(stderr, cli.Verbose)

	b, err := gitbackend.Open(gitbackend.KindFromString(cli.Backend), cli.Repo)
	if err != nil {
		return err
	}
	slog.Debug("repository opened",
		slog.String("path", b.RepoPath()),
		slog.String("backend", gitbackend.KindFromString(cli.Backend).String()),
	)
	opts := porting.Options{
		Jobs:               cli.Jobs,
		FingerprintTimeout: cli.Timeout,
	}
	if !cli.NoProgress && isTerminal(stderr) {
		opts.Progress = newProgress(stderr).update
	}
	return kctx.Run(&runContext{
		ctx:    ctx,
		g:      &cli.Globals,
		stdout: stdout,
		stderr: stderr,
		helper: porting.NewWithBackend(b, opts),
	})
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (rc *runContext) withContext(ctx context.Context) *runContext {
	out := *rc
	out.ctx = ctx
	return &out
}
