// Package sortutil holds the deterministic orderings used by gg output.
package sortutil

import (
	"cmp"
	"slices"

	"github.com/skaphos/gg/internal/discovery"
)

// LessRepoIDPath orders by repository identity first, then by path for
// repositories checked out more than once.
func LessRepoIDPath(repoIDI, pathI, repoIDJ, pathJ string) bool {
	if repoIDI == repoIDJ {
		return pathI < pathJ
	}
	return repoIDI < repoIDJ
}

// SortResults orders scan results by RepoID, then Path.
func SortResults(results []discovery.Result) {
	slices.SortStableFunc(results, func(a, b discovery.Result) int {
		return cmp.Or(cmp.Compare(a.RepoID, b.RepoID), cmp.Compare(a.Path, b.Path))
	})
}
