package backend

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Every record is framed by NULs: "\x00<header>\x00<numstat>" so the numstat lines that
// git prints after the formatted header land in their own frame. Commit messages cannot
// contain NUL.
const logFormat = "%x00%H%n%P%n%an%n%ae%n%aI%n%cn%n%ce%n%cI%n%B%x00"

func logArgs(rev string, paths []string, opts ...string) []string {
	args := []string{
		"log",
		"--no-color",
		"--no-decorate",
		"--numstat",
		// count files of the whole commit even when the walk is path limited
		"--full-diff",
		"--pretty=tformat:" + logFormat,
	}
	args = append(args, opts...)
	args = append(args, rev, "--")
	return append(args, paths...)
}

type gitLogStream struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	rec    *logRecordReader

	waitOnce sync.Once
	waitErr  error
}

func (g *gitCLI) StartLogStream(ctx context.Context, rev string, paths []string) (LogStream, error) {
	if g == nil || g.path == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return nil, fmt.Errorf("revision not specified")
	}
	paths = NormalizePaths(paths)

	ctx, cancel := context.WithCancel(ctx)
	cmdArgs := append([]string{"--no-pager", "-C", g.path}, logArgs(rev, paths)...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	stream := &gitLogStream{cancel: cancel, cmd: cmd}
	cmd.Stderr = &stream.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("git log stdout: %w", err)
	}
	stream.stdout = stdout
	stream.rec = newLogRecordReader(stdout)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = stdout.Close()
		if stream.stderr.Len() > 0 {
			return nil, fmt.Errorf("git log start: %w: %s", err, strings.TrimSpace(stream.stderr.String()))
		}
		return nil, fmt.Errorf("git log start: %w", err)
	}
	slog.Debug("git log stream started", slog.String("rev", rev), slog.Any("paths", paths))
	return stream, nil
}

func (s *gitLogStream) Next() (*Commit, error) {
	commit, err := s.rec.next()
	if err == io.EOF {
		if waitErr := s.wait(); waitErr != nil {
			return nil, waitErr
		}
		return nil, io.EOF
	}
	return commit, err
}

func (s *gitLogStream) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	err := s.wait()
	// killed by our own cancel: not a failure of the stream
	if err != nil && isExitCode(s.waitErr, -1) {
		return nil
	}
	return err
}

func (s *gitLogStream) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	if s.waitErr == nil {
		return nil
	}
	if s.stderr.Len() > 0 {
		return fmt.Errorf("git log: %w: %s", s.waitErr, strings.TrimSpace(s.stderr.String()))
	}
	return fmt.Errorf("git log: %w", s.waitErr)
}

// logRecordReader splits git log output produced with logFormat and --numstat into
// commits.
type logRecordReader struct {
	r       *bufio.Reader
	started bool
}

func newLogRecordReader(r io.Reader) *logRecordReader {
	return &logRecordReader{r: bufio.NewReader(r)}
}

func (l *logRecordReader) next() (*Commit, error) {
	if !l.started {
		// anything before the first frame marker is noise
		if _, err := l.r.ReadBytes(0); err != nil {
			return nil, err
		}
		l.started = true
	}
	header, err := l.r.ReadBytes(0)
	if err != nil {
		if err == io.EOF {
			if len(bytes.TrimSpace(header)) > 0 {
				return nil, fmt.Errorf("truncated git log record")
			}
			return nil, io.EOF
		}
		return nil, err
	}
	header = bytes.TrimLeft(header[:len(header)-1], "\r\n")
	if len(header) == 0 {
		return nil, fmt.Errorf("unexpected empty git log record")
	}
	commit, err := parseGitLogRecord(header)
	if err != nil {
		return nil, err
	}
	// The stat frame runs until the marker of the next record or the end of output.
	stats, err := l.r.ReadBytes(0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	commit.FilesChanged = countNumstatFiles(bytes.TrimSuffix(stats, []byte{0}))
	return commit, nil
}

func countNumstatFiles(stats []byte) int {
	n := 0
	for line := range strings.SplitSeq(string(stats), "\n") {
		// "<added>\t<deleted>\t<path>"; binary files report "-" counts
		if strings.Count(strings.TrimRight(line, "\r"), "\t") >= 2 {
			n++
		}
	}
	return n
}

func parseGitLogRecord(rec []byte) (*Commit, error) {
	parts := strings.Split(string(rec), "\n")
	if len(parts) < 8 {
		return nil, fmt.Errorf("unexpected git log record: got %d lines", len(parts))
	}
	hashStr := strings.TrimSpace(parts[0])
	if hashStr == "" {
		return nil, fmt.Errorf("missing commit hash")
	}
	var parents []string
	if parentLine := strings.TrimSpace(parts[1]); parentLine != "" {
		parents = strings.Fields(parentLine)
	}
	authorWhen, _ := time.Parse(time.RFC3339, parts[4])
	committerWhen, _ := time.Parse(time.RFC3339, parts[7])
	message := ""
	if len(parts) > 8 {
		message = strings.Join(parts[8:], "\n")
	}
	return &Commit{
		Hash:         hashStr,
		ParentHashes: parents,
		Author:       Signature{Name: parts[2], Email: parts[3], When: authorWhen},
		Committer:    Signature{Name: parts[5], Email: parts[6], When: committerWhen},
		Message:      message,
	}, nil
}
