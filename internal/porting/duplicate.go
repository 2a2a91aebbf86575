package porting

import "github.com/samber/lo"

// DuplicateGroup is a seed commit followed by the hashes of later commits sharing its key.
type DuplicateGroup struct {
	Seed    *Commit
	Matches []string
}

// Hashes returns the seed hash followed by the matches.
func (g DuplicateGroup) Hashes() []string {
	return append([]string{g.Seed.Hash()}, g.Matches...)
}

// groupFilter drops commits whose key was seen in its seed set. Groups only come from the
// seed set; unseen keys pass through without starting a group.
type groupFilter struct {
	key    func(*Commit) string
	groups []DuplicateGroup
	index  map[string]int
}

func newGroupFilter(seed []*Commit, key func(*Commit) string) *groupFilter {
	f := &groupFilter{key: key, index: make(map[string]int, len(seed))}
	for _, c := range seed {
		k := key(c)
		if _, ok := f.index[k]; ok {
			continue
		}
		f.index[k] = len(f.groups)
		f.groups = append(f.groups, DuplicateGroup{Seed: c})
	}
	return f
}

func (f *groupFilter) Action(c *Commit) bool {
	i, ok := f.index[f.key(c)]
	if !ok {
		return true
	}
	f.groups[i].Matches = append(f.groups[i].Matches, c.Hash())
	return false
}

func (f *groupFilter) Results() []DuplicateGroup {
	return f.groups
}

// Matched returns only the groups that caught at least one commit.
func (f *groupFilter) Matched() []DuplicateGroup {
	return lo.Filter(f.groups, func(g DuplicateGroup, _ int) bool {
		return len(g.Matches) > 0
	})
}

// PatchIDFilter drops commits whose patch id appears in a seed commit set, typically the
// commits already on a maintenance branch.
type PatchIDFilter struct {
	*groupFilter
}

var _ ResultFilter[DuplicateGroup] = (*PatchIDFilter)(nil)

func NewPatchIDFilter(seed []*Commit) *PatchIDFilter {
	return &PatchIDFilter{newGroupFilter(seed, (*Commit).PatchID)}
}

// SummaryFilter drops commits whose summary line exactly matches one in a seed commit set.
type SummaryFilter struct {
	*groupFilter
}

var _ ResultFilter[DuplicateGroup] = (*SummaryFilter)(nil)

func NewSummaryFilter(seed []*Commit) *SummaryFilter {
	return &SummaryFilter{newGroupFilter(seed, (*Commit).Summary)}
}
