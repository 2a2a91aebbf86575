package backend

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/go-git/go-git/v5/plumbing"
)

var errEmptyPatch = errors.New("patch has no content")

// PatchIDFromDiff digests a unified diff the way git patch-id does: commit headers before
// the first "diff " line, "index" lines and hunk headers are ignored, and all whitespace
// is removed, so the id does not depend on line offsets or whitespace.
//
// The digest uses git's object hasher and is 40 hex characters long. It is stable for a
// given diff text but is not byte-for-byte identical to git patch-id output, so ids
// produced here must not be mixed with ids produced by git.
func PatchIDFromDiff(r io.Reader) (string, error) {
	var buf bytes.Buffer
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	inPatch := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "diff ") {
			inPatch = true
		}
		if !inPatch {
			continue
		}
		if strings.HasPrefix(line, "index ") || strings.HasPrefix(line, "@@ ") {
			continue
		}
		buf.WriteString(removeSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read patch: %w", err)
	}
	if buf.Len() == 0 {
		return "", errEmptyPatch
	}
	return plumbing.ComputeHash(plumbing.BlobObject, buf.Bytes()).String(), nil
}

func removeSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
