package backend

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownRevision is returned by ResolveCommit when a hash does not name exactly one
// commit (unknown, ambiguous or not a commit).
var ErrUnknownRevision = errors.New("unknown revision")

// Backend abstracts access to repository data.
//
// The default implementation shells out to the git executable; the native one reads the
// repository with go-git. Callers only depend on this interface.
type Backend interface {
	RepoPath() string

	// StartLogStream enumerates the non-filtered history of rev in reverse chronological
	// order, restricted to paths when any remain after NormalizePaths.
	StartLogStream(ctx context.Context, rev string, paths []string) (LogStream, error)
	ResolveCommit(ctx context.Context, hash string) (*Commit, error)

	CommitDiffText(ctx context.Context, commitHash string, parentHash string) (string, error)
	PatchID(ctx context.Context, commitHash string) (string, error)
}

// Serial is implemented by backends that answer one request at a time.
type Serial interface {
	Serial() bool
}

type LogStream interface {
	Next() (*Commit, error)
	Close() error
}

func Open(kind Kind, repoPath string) (Backend, error) {
	switch kind {
	case KindCLI:
		return OpenCLI(repoPath)
	case KindNative:
		return OpenNative(repoPath)
	default:
		return nil, fmt.Errorf("unsupported backend %d", kind)
	}
}
