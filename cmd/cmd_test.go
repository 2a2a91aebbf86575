package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/thiagokokada/gitport/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out, io.Discard)
	return out.String(), err
}

func fixtureArgs(p *testutil.Porting, args ...string) []string {
	return append([]string{"--backend=native", "-C", p.Repo.Dir, "--no-progress"}, args...)
}

func TestCount(t *testing.T) {
	t.Parallel()
	p := testutil.NewPorting(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "patch_id",
			args: []string{"count", "--maint", "dev_b~3..dev_b", "--mainline", "HEAD"},
			want: "Not ported: 3 commits\n",
		},
		{
			name: "by_summary",
			args: []string{"count", "--maint", "dev_b~3..dev_b", "--mainline", "HEAD", "--by-summary"},
			want: "Not ported: 3 commits\n",
		},
		{
			name: "paths",
			args: []string{"count", "--maint", "dev_b~3..dev_b", "--mainline", "HEAD", "-p", "b.txt"},
			want: "Not ported: 1 commit\n",
		},
		{
			name: "root_path",
			args: []string{"count", "--maint", "dev_b~3..dev_b", "--mainline", "HEAD", "-p", "."},
			want: "Not ported: 3 commits\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCLI(t, fixtureArgs(p, tt.args...)...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()
	p := testutil.NewPorting(t)

	got, err := runCLI(t, fixtureArgs(p, "list", "--maint", "dev_b~3..dev_b", "--mainline", "HEAD")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 3 commits and a total, got:\n%s", got)
	}
	for i, h := range []string{p.C5, p.C2, p.C1} {
		if !strings.HasPrefix(lines[i], h[:7]+"  ") {
			t.Fatalf("line %d: expected %s, got %q", i, h[:7], lines[i])
		}
	}
	if !strings.HasSuffix(lines[1], "add b") {
		t.Fatalf("expected summary in %q", lines[1])
	}
}

func TestListPatch(t *testing.T) {
	t.Parallel()
	p := testutil.NewPorting(t)
	args := fixtureArgs(p, "list", "--maint", "dev_b~3..dev_b", "--mainline", "HEAD~1..HEAD", "--patch")

	plain, err := runCLI(t, append(args, "--color=never")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"commit " + p.C5, "Author: Tester <tester@example.com>", "    This reverts commit", "-foo"} {
		if !strings.Contains(plain, want) {
			t.Fatalf("expected %q in:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "\x1b[") {
		t.Fatal("plain output should not contain escape sequences")
	}

	colored, err := runCLI(t, append(args, "--color=always")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(colored, "\x1b[") {
		t.Fatalf("expected escape sequences in:\n%q", colored)
	}
}

func TestReverts(t *testing.T) {
	t.Parallel()
	p := testutil.NewPorting(t)

	got, err := runCLI(t, fixtureArgs(p, "reverts")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := p.C5[:7] + " reverts " + p.C3[:7] + "  found\nReverts: 1, 0 not in range\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got, err = runCLI(t, fixtureArgs(p, "reverts", "HEAD~2..HEAD")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(got, "  missing\n") || !strings.HasSuffix(got, "Reverts: 1, 1 not in range\n") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestDups(t *testing.T) {
	t.Parallel()
	p := testutil.NewPorting(t)

	got, err := runCLI(t, fixtureArgs(p, "dups", "--maint", "dev_b~3..dev_b", "--mainline", "HEAD")...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{
		"Matched by patch id: 2 groups\n",
		"  " + p.D3[:7] + " ",
		"    = " + p.C3[:7] + "\n",
		"    = " + p.C4[:7] + "\n",
		"Matched by summary: 0 groups\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	p := testutil.NewPorting(t)

	got, err := runCLI(t, fixtureArgs(p, "resolve", p.C3[:10], "zzz", p.M)...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected output:\n%s", got)
	}
	if !strings.HasPrefix(lines[0], p.C3+" ") || !strings.HasSuffix(lines[0], " add foo") {
		t.Fatalf("unexpected commit line %q", lines[0])
	}
	if lines[1] != "Skipped: 2 hashes" {
		t.Fatalf("unexpected summary line %q", lines[1])
	}
}

func TestRunFlags(t *testing.T) {
	t.Parallel()

	got, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(got, "gitport ") {
		t.Fatalf("unexpected version output %q", got)
	}

	for _, args := range [][]string{
		{"--backend=svn", "reverts"},
		{"count", "--mainline", "HEAD"},
		{"frobnicate"},
	} {
		if _, err := runCLI(t, args...); err == nil {
			t.Fatalf("expected error for %q", args)
		}
	}
}

func TestCountNoun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		noun string
		want string
	}{
		{0, "commit", "0 commits"},
		{1, "commit", "1 commit"},
		{1234, "commit", "1,234 commits"},
		{2, "hash", "2 hashes"},
	}
	for _, tt := range tests {
		if got := countNoun(tt.n, tt.noun); got != tt.want {
			t.Fatalf("countNoun(%d, %q) = %q, want %q", tt.n, tt.noun, got, tt.want)
		}
	}
}

func TestListTruncatesLongSummaryOnRunes(t *testing.T) {
	t.Parallel()
	r := testutil.NewRepo(t)
	r.Commit("initial", map[string]string{"a.txt": "a\n"})
	r.Commit(strings.Repeat("é", 100)+"\n", map[string]string{"a.txt": "b\n"})

	got, err := runCLI(t, "--backend=native", "-C", r.Dir, "--no-progress",
		"list", "--maint", "HEAD..HEAD", "--mainline", "HEAD~1..HEAD")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("output is not valid UTF-8: %q", got)
	}
	line, _, _ := strings.Cut(got, "\n")
	if !strings.HasSuffix(line, "  "+strings.Repeat("é", 77)+"...") {
		t.Fatalf("unexpected summary line %q", line)
	}
}
