package backend

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestParseGitLogRecord(t *testing.T) {
	t.Parallel()

	rec := bytes.Join([][]byte{
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb cccccccccccccccccccccccccccccccccccccccc"),
		[]byte("Alice"),
		[]byte("alice@example.com"),
		[]byte("2024-01-02T03:04:05Z"),
		[]byte("Bob"),
		[]byte("bob@example.com"),
		[]byte("2024-01-02T03:05:06Z"),
		[]byte("Subject line\n\nBody line\n"),
	}, []byte("\n"))

	commit, err := parseGitLogRecord(rec)
	if err != nil {
		t.Fatalf("parseGitLogRecord: %v", err)
	}
	if commit.Hash != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Fatalf("unexpected hash: %q", commit.Hash)
	}
	if len(commit.ParentHashes) != 2 || !commit.IsMerge() {
		t.Fatalf("unexpected parents: %#v", commit.ParentHashes)
	}
	if commit.Author.Name != "Alice" || commit.Committer.Email != "bob@example.com" {
		t.Fatalf("unexpected signatures: %#v %#v", commit.Author, commit.Committer)
	}
	if commit.Author.When != (time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected author time: %v", commit.Author.When)
	}
	if commit.Message != "Subject line\n\nBody line\n" {
		t.Fatalf("unexpected message: %q", commit.Message)
	}
	if commit.Summary() != "Subject line" {
		t.Fatalf("unexpected summary: %q", commit.Summary())
	}
}

func TestParseGitLogRecord_ShortRecord(t *testing.T) {
	t.Parallel()

	_, err := parseGitLogRecord([]byte("only\ntwo\nlines"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func header(hash, parents, message string) string {
	return "\x00" + hash + "\n" + parents + "\nA\na@example.com\n2024-01-02T03:04:05Z\nC\nc@example.com\n2024-01-02T03:04:05Z\n" + message + "\x00"
}

func TestLogRecordReader(t *testing.T) {
	t.Parallel()

	out := header("h3", "h2", "third\n") + "\n\n1\t0\ta.txt\n-\t-\timg.png\n" +
		header("h2", "h1 hx", "merge\n") + "\n" +
		header("h1", "", "root\n\nbody\n") + "\n\n2\t1\tb.txt\n"

	r := newLogRecordReader(bytes.NewBufferString(out))
	want := []struct {
		hash    string
		files   int
		parents int
		summary string
	}{
		{"h3", 2, 1, "third"},
		{"h2", 0, 2, "merge"},
		{"h1", 1, 0, "root"},
	}
	for _, w := range want {
		c, err := r.next()
		if err != nil {
			t.Fatalf("next(%s): %v", w.hash, err)
		}
		if c.Hash != w.hash || c.FilesChanged != w.files || len(c.ParentHashes) != w.parents || c.Summary() != w.summary {
			t.Fatalf("got %s files=%d parents=%d summary=%q, want %+v",
				c.Hash, c.FilesChanged, len(c.ParentHashes), c.Summary(), w)
		}
	}
	if _, err := r.next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestLogRecordReader_EmptyOutput(t *testing.T) {
	t.Parallel()

	if _, err := newLogRecordReader(bytes.NewReader(nil)).next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestLogRecordReader_Truncated(t *testing.T) {
	t.Parallel()

	r := newLogRecordReader(bytes.NewBufferString("\x00h1\nh0\nA"))
	if _, err := r.next(); err == nil || err == io.EOF {
		t.Fatalf("expected truncation error, got %v", err)
	}
}

func TestLogArgs(t *testing.T) {
	t.Parallel()

	args := logArgs("v1..v2", []string{"drivers/gpu"}, "-1")
	n := len(args)
	if args[n-4] != "-1" || args[n-3] != "v1..v2" || args[n-2] != "--" || args[n-1] != "drivers/gpu" {
		t.Fatalf("unexpected args tail: %q", args)
	}
}
