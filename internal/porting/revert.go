package porting

import (
	"regexp"
	"strings"
)

// UnresolvedRevert stands for the reverted hash of a revert commit whose message names no
// commit.
const UnresolvedRevert = "--"

var revertedHashRE = regexp.MustCompile(`This reverts\n? '?commit ([0-9a-f]+)`)

// RevertRecord pairs a revert commit with the commit it reverts. Found is set once the
// reverted commit shows up later in the same traversal.
type RevertRecord struct {
	Revert   string
	Reverted string
	Found    bool
}

// RevertFilter records revert commits and marks the ones whose reverted commit is seen
// further back in history. It keeps every commit.
type RevertFilter struct {
	records []RevertRecord
}

var _ ResultFilter[RevertRecord] = (*RevertFilter)(nil)

func NewRevertFilter() *RevertFilter {
	return &RevertFilter{}
}

func (f *RevertFilter) Action(c *Commit) bool {
	if strings.HasPrefix(c.Summary(), `Revert "`) {
		f.records = append(f.records, RevertRecord{
			Revert:   c.Hash(),
			Reverted: revertedHash(c.Message()),
		})
	}
	hash := c.Hash()
	for i := range f.records {
		rec := &f.records[i]
		if rec.Reverted != UnresolvedRevert && strings.HasPrefix(hash, rec.Reverted) {
			rec.Found = true
			break
		}
	}
	return true
}

func (f *RevertFilter) Results() []RevertRecord {
	return f.records
}

// Missing returns the revert records whose reverted commit was not found.
func (f *RevertFilter) Missing() []RevertRecord {
	var out []RevertRecord
	for _, rec := range f.records {
		if !rec.Found {
			out = append(out, rec)
		}
	}
	return out
}

func revertedHash(message string) string {
	m := revertedHashRE.FindStringSubmatch(message)
	if m == nil {
		return UnresolvedRevert
	}
	return m[1]
}
