package backend

import (
	"context"
	"fmt"
	"strings"
)

func (g *gitCLI) ResolveCommit(ctx context.Context, hash string) (*Commit, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, fmt.Errorf("%w: empty hash", ErrUnknownRevision)
	}
	out, err := g.runGitCommand(ctx, []string{"rev-parse", "-q", "--verify", hash + "^{commit}"}, true, "git rev-parse")
	if err != nil {
		// ambiguous short hashes exit with 1 too, but print hints on stderr
		if isExitCode(err, 1) {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownRevision, hash, err)
		}
		return nil, err
	}
	full := strings.TrimSpace(out)
	if full == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRevision, hash)
	}
	out, err = g.runGitCommand(ctx, logArgs(full, nil, "-1"), false, "git log")
	if err != nil {
		return nil, err
	}
	commit, err := newLogRecordReader(strings.NewReader(out)).next()
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", full, err)
	}
	return commit, nil
}

func (g *gitCLI) CommitDiffText(ctx context.Context, commitHash string, parentHash string) (string, error) {
	commitHash = strings.TrimSpace(commitHash)
	parentHash = strings.TrimSpace(parentHash)
	if commitHash == "" {
		return "", fmt.Errorf("commit not specified")
	}
	if parentHash != "" {
		return g.runGitCommand(
			ctx,
			[]string{"diff", "--no-color", parentHash, commitHash},
			true,
			"git diff",
		)
	}
	return g.runGitCommand(
		ctx,
		[]string{"show", "--no-color", "--pretty=format:", commitHash},
		false,
		"git show",
	)
}

// PatchID feeds the patch of commitHash to git patch-id and returns the resulting id.
func (g *gitCLI) PatchID(ctx context.Context, commitHash string) (string, error) {
	commitHash = strings.TrimSpace(commitHash)
	if commitHash == "" {
		return "", fmt.Errorf("commit not specified")
	}
	patch, err := g.runGitCommand(ctx, []string{"show", "--no-color", commitHash}, false, "git show")
	if err != nil {
		return "", err
	}
	out, err := g.runGitCommandInput(ctx, []string{"patch-id"}, strings.NewReader(patch), false, "git patch-id")
	if err != nil {
		return "", err
	}
	return parsePatchIDOutput(out)
}

func parsePatchIDOutput(out string) (string, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", fmt.Errorf("git patch-id: no output")
	}
	id := fields[0]
	if !isHex(id) {
		return "", fmt.Errorf("git patch-id: unexpected output %q", strings.TrimSpace(out))
	}
	return id, nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
