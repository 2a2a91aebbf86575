package porting

// Filter decides whether a commit stays in the result of Helper.Commits. Filters may
// record what they see; they are used by one traversal at a time.
type Filter interface {
	Action(c *Commit) bool
}

// ResultFilter is a Filter that also exposes what it recorded.
type ResultFilter[R any] interface {
	Filter
	Results() []R
}

// keep runs c through filters in order and stops at the first one that drops it, so
// later filters never see dropped commits.
func keep(c *Commit, filters []Filter) bool {
	for _, f := range filters {
		if !f.Action(c) {
			return false
		}
	}
	return true
}
