package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/dustin/go-humanize"
	"github.com/gertd/go-pluralize"

	gitbackend "github.com/thiagokokada/gitport/internal/git/backend"
	"github.com/thiagokokada/gitport/internal/porting"
)

var plural = pluralize.NewClient()

// countNoun renders "1 commit", "1,024 commits".
func countNoun(n int, noun string) string {
	return fmt.Sprintf("%s %s", humanize.Comma(int64(n)), plural.Pluralize(noun, n, false))
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

func formatSummary(c *porting.Commit) string {
	firstLine := c.Summary()
	if runes := []rune(firstLine); len(runes) > 80 {
		firstLine = string(runes[:77]) + "..."
	}
	timestamp := c.Raw().Committer.When.Format("2006-01-02 15:04")
	return fmt.Sprintf("%s  %s  %s", shortHash(c.Hash()), timestamp, firstLine)
}

// formatCommitHeader renders a commit the way git show prints it before the patch.
func formatCommitHeader(c *gitbackend.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash)
	appendSignatureLine(&b, "Author", c.Author)
	committer := c.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = c.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(c.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String()
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

func appendSignatureLine(b *strings.Builder, label string, sig gitbackend.Signature) {
	fmt.Fprintf(b, "%s: %s <%s>", label, sig.Name, sig.Email)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(w)
	}
}

func writePatch(w io.Writer, c *porting.Commit, patch string, color bool) error {
	var b strings.Builder
	b.WriteString(formatCommitHeader(c.Raw()))
	if patch != "" {
		b.WriteString("\n")
		b.WriteString(patch)
		if !strings.HasSuffix(patch, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	if !color {
		_, err := io.WriteString(w, b.String())
		return err
	}
	return quick.Highlight(w, b.String(), "diff", "terminal256", "github-dark")
}

func writeReverts(w io.Writer, records []porting.RevertRecord) {
	missing := 0
	for _, rec := range records {
		state := "found"
		if !rec.Found {
			state = "missing"
			missing++
		}
		fmt.Fprintf(w, "%s reverts %s  %s\n", shortHash(rec.Revert), shortHash(rec.Reverted), state)
	}
	fmt.Fprintf(w, "Reverts: %s, %s not in range\n", humanize.Comma(int64(len(records))), humanize.Comma(int64(missing)))
}

func writeGroups(w io.Writer, kind string, groups []porting.DuplicateGroup, key func(porting.DuplicateGroup) string) {
	fmt.Fprintf(w, "Matched by %s: %s\n", kind, countNoun(len(groups), "group"))
	for _, g := range groups {
		fmt.Fprintf(w, "  %s %q\n", shortHash(g.Seed.Hash()), key(g))
		for _, h := range g.Matches {
			fmt.Fprintf(w, "    = %s\n", shortHash(h))
		}
	}
}
