package backend

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

// renderChanges writes a git style patch for changes, one section per file in path order.
func renderChanges(ctx context.Context, changes object.Changes) (string, error) {
	sorted := slices.Clone(changes)
	slices.SortFunc(sorted, func(a, b *object.Change) int {
		return cmp.Compare(changePath(a), changePath(b))
	})
	var b strings.Builder
	for _, ch := range sorted {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := renderChange(&b, ch); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func changePath(ch *object.Change) string {
	if ch.To.Name != "" {
		return ch.To.Name
	}
	return ch.From.Name
}

func renderChange(b *strings.Builder, ch *object.Change) error {
	from, to, err := ch.Files()
	if err != nil {
		return err
	}
	fromName, toName := ch.From.Name, ch.To.Name
	if fromName == "" {
		fromName = toName
	}
	if toName == "" {
		toName = fromName
	}
	fmt.Fprintf(b, "diff --git a/%s b/%s\n", fromName, toName)

	isBinary, err := binaryChange(from, to)
	if err != nil {
		return err
	}
	if isBinary {
		fmt.Fprintf(b, "Binary files %s and %s differ\n", ch.From.TreeEntry.Hash, ch.To.TreeEntry.Hash)
		return nil
	}

	fromLines, err := fileLines(from)
	if err != nil {
		return err
	}
	toLines, err := fileLines(to)
	if err != nil {
		return err
	}
	ud := difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: diffLabel("a/", from, ch.From.Name),
		ToFile:   diffLabel("b/", to, ch.To.Name),
		Context:  3,
	}
	diffText, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return err
	}
	b.WriteString(diffText)
	if diffText != "" && !strings.HasSuffix(diffText, "\n") {
		b.WriteByte('\n')
	}
	return nil
}

func diffLabel(prefix string, f *object.File, name string) string {
	if f == nil {
		return "/dev/null"
	}
	return prefix + name
}

func binaryChange(files ...*object.File) (bool, error) {
	for _, f := range files {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return []string{}, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(content), nil
}
