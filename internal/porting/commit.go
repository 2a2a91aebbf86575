// Package porting walks commit ranges and classifies commits for backport decisions:
// already ported (same patch id or summary), reverted, or still to port.
package porting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gitbackend "github.com/thiagokokada/gitport/internal/git/backend"
)

// EmptyPatchID is the patch id of commits that change no files. It cannot collide with a
// real patch id.
const EmptyPatchID = "0000000000000000000000000000000000000000"

// ErrFingerprint marks a failed patch id computation.
var ErrFingerprint = errors.New("patch id computation failed")

// Fingerprinter computes the patch id of a commit.
type Fingerprinter interface {
	PatchID(ctx context.Context, commitHash string) (string, error)
}

// Commit is a commit from history with its patch id attached.
type Commit struct {
	raw     *gitbackend.Commit
	patchID string
}

func newCommit(ctx context.Context, raw *gitbackend.Commit, fp Fingerprinter, timeout time.Duration) (*Commit, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil commit")
	}
	if raw.FilesChanged == 0 {
		return &Commit{raw: raw, patchID: EmptyPatchID}, nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	id, err := fp.PatchID(ctx, raw.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFingerprint, raw.Hash, err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: %s: empty patch id", ErrFingerprint, raw.Hash)
	}
	slog.Debug("patch id computed",
		slog.String("commit", raw.Hash),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &Commit{raw: raw, patchID: id}, nil
}

func (c *Commit) Hash() string {
	return c.raw.Hash
}

func (c *Commit) Summary() string {
	return c.raw.Summary()
}

func (c *Commit) Message() string {
	return c.raw.Message
}

func (c *Commit) ParentHashes() []string {
	return c.raw.ParentHashes
}

func (c *Commit) NumParents() int {
	return len(c.raw.ParentHashes)
}

func (c *Commit) FilesChanged() int {
	return c.raw.FilesChanged
}

func (c *Commit) PatchID() string {
	return c.patchID
}

// Raw returns the underlying commit for fields without an accessor (author, dates).
func (c *Commit) Raw() *gitbackend.Commit {
	return c.raw
}

func (c *Commit) String() string {
	return fmt.Sprintf("%s %s", shortHash(c.raw.Hash), c.Summary())
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
