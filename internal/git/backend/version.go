package backend

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// Minimum supported git version for the CLI backend: strict ISO dates (%aI) in log
// formats, rev-parse -q --verify and patch-id reading from stdin.
var minGitVersion = "v2.20.0"

var gitVersionRE = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

func MinGitVersion() string {
	return strings.TrimPrefix(minGitVersion, "v")
}

// parseGitVersionOutput extracts a canonical semver ("v2.39.3") from the output of
// git --version, tolerating vendor suffixes such as "(Apple Git-146)" or ".windows.1".
func parseGitVersionOutput(out string) (string, bool) {
	s := strings.TrimSpace(out)
	if idx := strings.Index(s, "git version"); idx >= 0 {
		s = s[idx+len("git version"):]
	}
	m := gitVersionRE.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v := semver.Canonical(fmt.Sprintf("v%s.%s.%s", m[1], m[2], patch))
	return v, v != ""
}

func validateGitVersionOutput(out string) error {
	got, ok := parseGitVersionOutput(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if semver.Compare(got, minGitVersion) < 0 {
		return fmt.Errorf("git %s is too old; gitport requires git >= %s",
			strings.TrimPrefix(got, "v"), MinGitVersion())
	}
	return nil
}

var (
	gitVersionOnce sync.Once
	gitVersionOut  string
	gitVersionErr  error
)

func gitVersionCached() (string, error) {
	gitVersionOnce.Do(func() {
		outBytes, err := exec.Command("git", "--version").CombinedOutput()
		gitVersionOut = strings.TrimSpace(string(outBytes))
		if err != nil {
			if gitVersionOut != "" {
				gitVersionErr = fmt.Errorf("git --version: %w: %s", err, gitVersionOut)
				return
			}
			gitVersionErr = fmt.Errorf("git --version: %w", err)
		}
	})
	return gitVersionOut, gitVersionErr
}

// GitVersion returns the raw output of git --version.
func GitVersion() (string, error) {
	return gitVersionCached()
}

var (
	minGitVersionOnce sync.Once
	minGitVersionErr  error
)

func ensureMinGitVersion() error {
	minGitVersionOnce.Do(func() {
		out, err := gitVersionCached()
		if err != nil {
			minGitVersionErr = err
			return
		}
		minGitVersionErr = validateGitVersionOutput(out)
	})
	return minGitVersionErr
}
