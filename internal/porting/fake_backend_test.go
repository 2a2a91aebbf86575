package porting

import (
	"context"
	"errors"
	"io"

	gitbackend "github.com/thiagokokada/gitport/internal/git/backend"
)

type fakeBackend struct {
	repoPath string

	startLogStreamFunc func(rev string, paths []string) (gitbackend.LogStream, error)
	resolveCommitFunc  func(hash string) (*gitbackend.Commit, error)
	commitDiffTextFunc func(commitHash string, parentHash string) (string, error)
	patchIDFunc        func(ctx context.Context, commitHash string) (string, error)

	lastRev    string
	lastPaths  []string
	lastParent string
}

func (f *fakeBackend) RepoPath() string { return f.repoPath }

func (f *fakeBackend) StartLogStream(_ context.Context, rev string, paths []string) (gitbackend.LogStream, error) {
	f.lastRev = rev
	f.lastPaths = paths
	if f.startLogStreamFunc != nil {
		return f.startLogStreamFunc(rev, paths)
	}
	return nil, errors.New("unexpected StartLogStream call")
}

func (f *fakeBackend) ResolveCommit(_ context.Context, hash string) (*gitbackend.Commit, error) {
	if f.resolveCommitFunc != nil {
		return f.resolveCommitFunc(hash)
	}
	return nil, errors.New("unexpected ResolveCommit call")
}

func (f *fakeBackend) CommitDiffText(_ context.Context, commitHash string, parentHash string) (string, error) {
	f.lastParent = parentHash
	if f.commitDiffTextFunc != nil {
		return f.commitDiffTextFunc(commitHash, parentHash)
	}
	return "", errors.New("unexpected CommitDiffText call")
}

func (f *fakeBackend) PatchID(ctx context.Context, commitHash string) (string, error) {
	if f.patchIDFunc != nil {
		return f.patchIDFunc(ctx, commitHash)
	}
	return "", errors.New("unexpected PatchID call")
}

type sliceLogStream struct {
	commits []*gitbackend.Commit
	closed  bool
}

func (s *sliceLogStream) Next() (*gitbackend.Commit, error) {
	if len(s.commits) == 0 {
		return nil, io.EOF
	}
	c := s.commits[0]
	s.commits = s.commits[1:]
	return c, nil
}

func (s *sliceLogStream) Close() error {
	s.closed = true
	return nil
}

// stubFingerprinter maps hashes to fixed patch ids and counts calls.
type stubFingerprinter struct {
	ids map[string]string
}

func (s stubFingerprinter) PatchID(_ context.Context, hash string) (string, error) {
	id, ok := s.ids[hash]
	if !ok {
		return "", errors.New("no patch id for " + hash)
	}
	return id, nil
}

func raw(hash, message string, files int, parents ...string) *gitbackend.Commit {
	return &gitbackend.Commit{Hash: hash, Message: message, FilesChanged: files, ParentHashes: parents}
}

func wrapped(hash, summary, patchID string) *Commit {
	return &Commit{raw: raw(hash, summary+"\n", 1), patchID: patchID}
}
