// Package testutil builds throwaway git repositories with go-git for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type Repo struct {
	tb   testing.TB
	Dir  string
	Repo *gitlib.Repository
	wt   *gitlib.Worktree
	when time.Time
}

func NewRepo(tb testing.TB) *Repo {
	tb.Helper()
	dir := tb.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		tb.Fatalf("init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		tb.Fatalf("worktree: %v", err)
	}
	return &Repo{
		tb:   tb,
		Dir:  dir,
		Repo: repo,
		wt:   wt,
		when: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Commit writes files (path -> content) and commits them on the current branch. A nil
// map makes an empty commit.
func (r *Repo) Commit(message string, files map[string]string) string {
	r.tb.Helper()
	r.stage(files)
	return r.commit(message, nil)
}

// Merge records a merge commit of the current branch and other, keeping the current tree
// plus files.
func (r *Repo) Merge(message string, other string, files map[string]string) string {
	r.tb.Helper()
	head, err := r.Repo.Head()
	if err != nil {
		r.tb.Fatalf("resolve HEAD: %v", err)
	}
	r.stage(files)
	return r.commit(message, []plumbing.Hash{head.Hash(), plumbing.NewHash(other)})
}

// Checkout switches to branch, creating it at the given commit when at is not empty.
func (r *Repo) Checkout(branch string, at string) {
	r.tb.Helper()
	opts := &gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Force:  true,
	}
	if at != "" {
		opts.Hash = plumbing.NewHash(at)
		opts.Create = true
	}
	if err := r.wt.Checkout(opts); err != nil {
		r.tb.Fatalf("checkout %s: %v", branch, err)
	}
}

func (r *Repo) stage(files map[string]string) {
	r.tb.Helper()
	for name, content := range files {
		full := filepath.Join(r.Dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			r.tb.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			r.tb.Fatalf("write %s: %v", name, err)
		}
		if _, err := r.wt.Add(name); err != nil {
			r.tb.Fatalf("add %s: %v", name, err)
		}
	}
}

func (r *Repo) commit(message string, parents []plumbing.Hash) string {
	r.tb.Helper()
	r.when = r.when.Add(time.Minute)
	sig := &object.Signature{Name: "Tester", Email: "tester@example.com", When: r.when}
	h, err := r.wt.Commit(message, &gitlib.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.tb.Fatalf("commit %q: %v", message, err)
	}
	return h.String()
}
