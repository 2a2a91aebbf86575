package porting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	gitbackend "github.com/thiagokokada/gitport/internal/git/backend"
)

const DefaultFingerprintTimeout = 30 * time.Second

type Options struct {
	// Jobs bounds concurrent patch id computations. Zero means runtime.NumCPU().
	// Fingerprinters implementing backend.Serial always get one job.
	Jobs int
	// FingerprintTimeout bounds each patch id computation. Zero means
	// DefaultFingerprintTimeout; a negative value disables the timeout.
	FingerprintTimeout time.Duration
	// Progress, when set, is called from worker goroutines after each patch id.
	Progress func(done, total int)
	// Fingerprinter overrides the backend's patch id computation.
	Fingerprinter Fingerprinter
}

// Helper enumerates commits of one repository and runs them through filters.
type Helper struct {
	backend gitbackend.Backend
	fp      Fingerprinter
	jobs    int
	timeout time.Duration
	prog    func(done, total int)
}

// Open opens the repository at repoPath with the git CLI backend.
func Open(repoPath string, opts Options) (*Helper, error) {
	b, err := gitbackend.OpenCLI(repoPath)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(b, opts), nil
}

func NewWithBackend(b gitbackend.Backend, opts Options) *Helper {
	h := &Helper{
		backend: b,
		fp:      opts.Fingerprinter,
		jobs:    opts.Jobs,
		timeout: opts.FingerprintTimeout,
		prog:    opts.Progress,
	}
	if h.fp == nil {
		h.fp = b
	}
	if h.jobs <= 0 {
		h.jobs = runtime.NumCPU()
	}
	// a fingerprinter behind a single lock would spend its timeout waiting in line
	if s, ok := h.fp.(gitbackend.Serial); ok && s.Serial() {
		h.jobs = 1
	}
	if h.timeout == 0 {
		h.timeout = DefaultFingerprintTimeout
	}
	return h
}

func (h *Helper) Dir() string {
	return h.backend.RepoPath()
}

// Commits returns the non-merge commits of rev (HEAD when empty) touching paths, newest
// first, that every filter keeps. Filters see the commits in that same order.
func (h *Helper) Commits(ctx context.Context, rev string, paths []string, filters ...Filter) ([]*Commit, error) {
	if strings.TrimSpace(rev) == "" {
		rev = "HEAD"
	}
	raws, err := h.walk(ctx, rev, paths)
	if err != nil {
		return nil, err
	}
	commits, err := h.wrap(ctx, raws)
	if err != nil {
		return nil, err
	}
	kept := make([]*Commit, 0, len(commits))
	for _, c := range commits {
		if keep(c, filters) {
			kept = append(kept, c)
		}
	}
	slog.Debug("commits filtered",
		slog.String("rev", rev),
		slog.Int("total", len(commits)),
		slog.Int("kept", len(kept)),
	)
	return kept, nil
}

func (h *Helper) walk(ctx context.Context, rev string, paths []string) ([]*gitbackend.Commit, error) {
	stream, err := h.backend.StartLogStream(ctx, rev, gitbackend.NormalizePaths(paths))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", rev, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Debug("log stream close", slog.String("rev", rev), slog.Any("err", err))
		}
	}()
	var raws []*gitbackend.Commit
	for {
		c, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", rev, err)
		}
		if c.IsMerge() {
			slog.Debug("skipping merge commit", slog.String("commit", c.Hash))
			continue
		}
		raws = append(raws, c)
	}
	return raws, nil
}

// wrap attaches patch ids to raws using up to h.jobs workers. The result keeps the order
// of raws.
func (h *Helper) wrap(ctx context.Context, raws []*gitbackend.Commit) ([]*Commit, error) {
	out := make([]*Commit, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.jobs)
	var done atomic.Int64
	for i, raw := range raws {
		g.Go(func() error {
			c, err := newCommit(gctx, raw, h.fp, h.timeout)
			if err != nil {
				return err
			}
			out[i] = c
			if h.prog != nil {
				h.prog(int(done.Add(1)), len(raws))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CommitsFromHashes resolves hashes to commits in input order. Hashes that name no single
// commit and merge commits are skipped.
func (h *Helper) CommitsFromHashes(ctx context.Context, hashes []string) ([]*Commit, error) {
	var raws []*gitbackend.Commit
	for _, hash := range hashes {
		c, err := h.backend.ResolveCommit(ctx, hash)
		if errors.Is(err, gitbackend.ErrUnknownRevision) {
			slog.Debug("skipping unknown hash", slog.String("hash", hash), slog.Any("err", err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", hash, err)
		}
		if c.IsMerge() {
			slog.Debug("skipping merge commit", slog.String("commit", c.Hash))
			continue
		}
		raws = append(raws, c)
	}
	return h.wrap(ctx, raws)
}

// Diff returns the patch of c against its first parent.
func (h *Helper) Diff(ctx context.Context, c *Commit) (string, error) {
	parent := ""
	if parents := c.ParentHashes(); len(parents) > 0 {
		parent = parents[0]
	}
	text, err := h.backend.CommitDiffText(ctx, c.Hash(), parent)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", shortHash(c.Hash()), err)
	}
	return text, nil
}
