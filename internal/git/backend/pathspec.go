package backend

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
)

// NormalizePaths returns the path restriction to hand to history traversal.
//
// Empty entries are dropped, and any entry naming the repository root ("." or "./")
// lifts the restriction entirely, so nil, "", "." and ["."] all select every path.
func NormalizePaths(paths []string) []string {
	cleaned := lo.FilterMap(paths, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
	if len(cleaned) == 0 {
		return nil
	}
	if lo.SomeBy(cleaned, isRootPath) {
		return nil
	}
	return lo.Uniq(cleaned)
}

func isRootPath(p string) bool {
	return path.Clean(strings.TrimPrefix(p, "./")) == "."
}

// pathMatcher reports whether a repository relative file path falls under one of the
// pathspecs: an exact file, a directory prefix or a doublestar glob.
func pathMatcher(paths []string) func(string) bool {
	paths = NormalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	specs := lo.Map(paths, func(p string, _ int) string {
		return strings.TrimSuffix(path.Clean(strings.TrimPrefix(p, "./")), "/")
	})
	return func(file string) bool {
		for _, spec := range specs {
			if file == spec || strings.HasPrefix(file, spec+"/") {
				return true
			}
			if ok, err := doublestar.Match(spec, file); err == nil && ok {
				return true
			}
		}
		return false
	}
}
