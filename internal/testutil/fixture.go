package testutil

import (
	"fmt"
	"testing"
)

// Porting is a small history shaped like a maintenance/mainline pair:
//
//	master: C1 - C2 - C3 - C4 - C5            C5 reverts C3
//	dev_b:        \- D1 - D2 - D3 ---- M       D2 repeats C4, D3 repeats C3's patch
//	                        \- S1 ---/         M merges the side commit S1
type Porting struct {
	Repo *Repo

	C1, C2, C3, C4, C5 string
	D1, D2, D3, S1, M  string
}

func NewPorting(tb testing.TB) *Porting {
	tb.Helper()
	r := NewRepo(tb)
	p := &Porting{Repo: r}

	p.C1 = r.Commit("add a", map[string]string{"a.txt": "a1\n"})
	p.C2 = r.Commit("add b", map[string]string{"b.txt": "b1\n"})
	p.C3 = r.Commit("add foo", map[string]string{"a.txt": "a1\nfoo\n"})
	p.C4 = r.Commit("update b", map[string]string{"b.txt": "b1\nb2\n"})
	p.C5 = r.Commit(
		fmt.Sprintf("Revert \"add foo\"\n\nThis reverts commit %s.\n", p.C3),
		map[string]string{"a.txt": "a1\n"},
	)

	r.Checkout("dev_b", p.C2)
	p.D1 = r.Commit("add c", map[string]string{"c.txt": "c1\n"})
	p.D2 = r.Commit("update b", map[string]string{"b.txt": "b1\nb2\n"})
	r.Checkout("side", p.D2)
	p.S1 = r.Commit("side change", map[string]string{"s.txt": "s1\n"})
	r.Checkout("dev_b", "")
	p.D3 = r.Commit("add foo (backport)", map[string]string{"a.txt": "a1\nfoo\n"})
	p.M = r.Merge("Merge branch 'side' into dev_b", p.S1, map[string]string{"s.txt": "s1\n"})

	r.Checkout("master", "")
	return p
}
