package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thiagokokada/gitport/internal/porting"
	"github.com/thiagokokada/gitport/internal/watch"
)

type rangeFlags struct {
	Maint    string   `required:"" placeholder:"A..B" help:"Commit range of the maintenance branch."`
	Mainline string   `required:"" placeholder:"C..D" help:"Commit range of mainline."`
	Path     []string `short:"p" help:"Only consider commits touching these paths."`
}

// analysis is the outcome of checking a mainline range against a maintenance range.
type analysis struct {
	maint     []*porting.Commit
	notPorted []*porting.Commit
	byPatch   *porting.PatchIDFilter
	bySummary *porting.SummaryFilter
}

func (f *rangeFlags) analyze(rc *runContext, bySummary bool) (*analysis, error) {
	maint, err := rc.helper.Commits(rc.ctx, f.Maint, f.Path)
	if err != nil {
		return nil, fmt.Errorf("maintenance range: %w", err)
	}
	a := &analysis{maint: maint, byPatch: porting.NewPatchIDFilter(maint)}
	filters := []porting.Filter{a.byPatch}
	if bySummary {
		a.bySummary = porting.NewSummaryFilter(maint)
		filters = append(filters, a.bySummary)
	}
	a.notPorted, err = rc.helper.Commits(rc.ctx, f.Mainline, f.Path, filters...)
	if err != nil {
		return nil, fmt.Errorf("mainline range: %w", err)
	}
	slog.Debug("analysis done",
		slog.Int("maint", len(maint)),
		slog.Int("not_ported", len(a.notPorted)),
	)
	return a, nil
}

type CountCmd struct {
	rangeFlags

	BySummary bool `help:"Also count commits with the summary of a maintenance commit as ported."`
	Watch     bool `short:"w" help:"Keep running and recount when repository refs change."`
}

func (c *CountCmd) Run(rc *runContext) error {
	if err := c.print(rc); err != nil {
		return err
	}
	if !c.Watch {
		return nil
	}
	return watch.Run(rc.ctx, rc.helper.Dir(), watch.DefaultDelay, func(ctx context.Context) error {
		return c.print(rc.withContext(ctx))
	})
}

func (c *CountCmd) print(rc *runContext) error {
	a, err := c.analyze(rc, c.BySummary)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(rc.stdout, "Not ported: %s\n", countNoun(len(a.notPorted), "commit"))
	return err
}

type ListCmd struct {
	rangeFlags

	BySummary bool   `help:"Also treat commits with the summary of a maintenance commit as ported."`
	Patch     bool   `help:"Print the patch of every commit."`
	Color     string `default:"auto" enum:"auto,always,never" help:"Highlight patches: auto, always or never."`
}

func (c *ListCmd) Run(rc *runContext) error {
	a, err := c.analyze(rc, c.BySummary)
	if err != nil {
		return err
	}
	color := useColor(c.Color, rc.stdout)
	for _, commit := range a.notPorted {
		if !c.Patch {
			fmt.Fprintln(rc.stdout, formatSummary(commit))
			continue
		}
		text, err := rc.helper.Diff(rc.ctx, commit)
		if err != nil {
			return err
		}
		if err := writePatch(rc.stdout, commit, text, color); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(rc.stdout, "Not ported: %s\n", countNoun(len(a.notPorted), "commit"))
	return err
}

type RevertsCmd struct {
	Rev  string   `arg:"" optional:"" default:"HEAD" help:"Revision or range to scan."`
	Path []string `short:"p" help:"Only consider commits touching these paths."`
}

func (c *RevertsCmd) Run(rc *runContext) error {
	reverts := porting.NewRevertFilter()
	if _, err := rc.helper.Commits(rc.ctx, c.Rev, c.Path, reverts); err != nil {
		return err
	}
	writeReverts(rc.stdout, reverts.Results())
	return nil
}

type DupsCmd struct {
	rangeFlags
}

func (c *DupsCmd) Run(rc *runContext) error {
	a, err := c.analyze(rc, true)
	if err != nil {
		return err
	}
	writeGroups(rc.stdout, "patch id", a.byPatch.Matched(), func(g porting.DuplicateGroup) string {
		return g.Seed.PatchID()
	})
	writeGroups(rc.stdout, "summary", a.bySummary.Matched(), func(g porting.DuplicateGroup) string {
		return g.Seed.Summary()
	})
	return nil
}

type ResolveCmd struct {
	Hashes []string `arg:"" name:"hash" help:"Commit hashes, full or abbreviated."`
}

func (c *ResolveCmd) Run(rc *runContext) error {
	commits, err := rc.helper.CommitsFromHashes(rc.ctx, c.Hashes)
	if err != nil {
		return err
	}
	for _, commit := range commits {
		fmt.Fprintf(rc.stdout, "%s %s %s\n", commit.Hash(), commit.PatchID(), commit.Summary())
	}
	if skipped := len(c.Hashes) - len(commits); skipped > 0 {
		fmt.Fprintf(rc.stdout, "Skipped: %s\n", countNoun(skipped, "hash"))
	}
	return nil
}
