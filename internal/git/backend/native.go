package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
)

type native struct {
	// mu serializes object reads; go-git storage is not safe for concurrent use.
	mu   sync.Mutex
	path string
	repo *gitlib.Repository
}

// OpenNative opens the repository containing repoPath with go-git. It needs no git
// executable.
func OpenNative(repoPath string) (Backend, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &native{path: root, repo: repo}, nil
}

func (n *native) RepoPath() string {
	return n.path
}

// Serial reports that every object read goes through n.mu.
func (n *native) Serial() bool {
	return true
}

func (n *native) StartLogStream(ctx context.Context, rev string, paths []string) (LogStream, error) {
	exclude, include, err := splitRange(rev)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	from, err := n.resolve(include)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", include, err)
	}
	var excluded *set.Set[plumbing.Hash]
	excludedCount := 0
	if exclude != "" {
		excluded, err = n.reachable(ctx, exclude)
		if err != nil {
			return nil, err
		}
		excludedCount = excluded.Size()
	}
	iter, err := n.repo.Log(&gitlib.LogOptions{
		From:       from,
		Order:      gitlib.LogOrderCommitterTime,
		PathFilter: pathMatcher(paths),
	})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	slog.Debug("native log stream started",
		slog.String("rev", rev),
		slog.Any("paths", NormalizePaths(paths)),
		slog.Int("excluded", excludedCount),
	)
	return &nativeLogStream{ctx: ctx, mu: &n.mu, iter: iter, excluded: excluded}, nil
}

// splitRange understands "REV" and "A..B" (either side defaulting to HEAD).
func splitRange(rev string) (exclude, include string, err error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", "", fmt.Errorf("revision not specified")
	}
	if strings.Contains(rev, "...") {
		return "", "", fmt.Errorf("symmetric range %q is not supported by the native backend", rev)
	}
	from, to, ok := strings.Cut(rev, "..")
	if !ok {
		return "", rev, nil
	}
	if from == "" {
		from = "HEAD"
	}
	if to == "" {
		to = "HEAD"
	}
	return from, to, nil
}

func (n *native) resolve(rev string) (plumbing.Hash, error) {
	h, err := n.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *h, nil
}

func (n *native) reachable(ctx context.Context, rev string) (*set.Set[plumbing.Hash], error) {
	from, err := n.resolve(rev)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", rev, err)
	}
	iter, err := n.repo.Log(&gitlib.LogOptions{From: from})
	if err != nil {
		return nil, fmt.Errorf("read commits: %w", err)
	}
	defer iter.Close()
	seen := set.New[plumbing.Hash](1024)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen.Insert(c.Hash)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", rev, err)
	}
	return seen, nil
}

type nativeLogStream struct {
	ctx      context.Context
	mu       *sync.Mutex
	iter     object.CommitIter
	excluded *set.Set[plumbing.Hash]
}

func (s *nativeLogStream) Next() (*Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}
		c, err := s.iter.Next()
		if err != nil {
			return nil, err
		}
		if s.excluded != nil && s.excluded.Contains(c.Hash) {
			continue
		}
		return convertCommit(c)
	}
}

func (s *nativeLogStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.iter != nil {
		s.iter.Close()
	}
	return nil
}

func (n *native) ResolveCommit(ctx context.Context, hash string) (*Commit, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, err := n.commit(hash)
	if err != nil {
		return nil, err
	}
	return convertCommit(c)
}

func (n *native) commit(hash string) (*object.Commit, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, fmt.Errorf("%w: empty hash", ErrUnknownRevision)
	}
	h, err := n.resolve(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownRevision, hash, err)
	}
	c, err := n.repo.CommitObject(h)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownRevision, hash, err)
		}
		return nil, err
	}
	return c, nil
}

func (n *native) CommitDiffText(ctx context.Context, commitHash string, parentHash string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	commit, err := n.commit(commitHash)
	if err != nil {
		return "", err
	}
	currentTree, err := commit.Tree()
	if err != nil {
		return "", err
	}
	var parentTree *object.Tree
	if strings.TrimSpace(parentHash) != "" {
		parent, err := n.commit(parentHash)
		if err != nil {
			return "", err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return "", err
		}
	}
	changes, err := object.DiffTreeWithOptions(ctx, parentTree, currentTree, &object.DiffTreeOptions{})
	if err != nil {
		return "", err
	}
	if len(changes) == 0 {
		return "", nil
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", err
	}
	return patch.String(), nil
}

func (n *native) PatchID(ctx context.Context, commitHash string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	commit, err := n.commit(commitHash)
	if err != nil {
		return "", err
	}
	changes, err := commitChanges(commit)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", commitHash, err)
	}
	text, err := renderChanges(ctx, changes)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", commitHash, err)
	}
	return PatchIDFromDiff(strings.NewReader(text))
}

func convertCommit(c *object.Commit) (*Commit, error) {
	out := &Commit{
		Hash:         c.Hash.String(),
		ParentHashes: lo.Map(c.ParentHashes, func(h plumbing.Hash, _ int) string { return h.String() }),
		Author:       Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:    Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:      c.Message,
	}
	// git log prints no stats for merges either
	if c.NumParents() > 1 {
		return out, nil
	}
	changes, err := commitChanges(c)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", c.Hash, err)
	}
	out.FilesChanged = len(changes)
	return out, nil
}

// commitChanges diffs a commit against its first parent, or the empty tree for roots.
func commitChanges(c *object.Commit) (object.Changes, error) {
	currentTree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}
	return object.DiffTree(parentTree, currentTree)
}
