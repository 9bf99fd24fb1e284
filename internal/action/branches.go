package action

import (
	"context"
	"fmt"
	"strings"

	"github.com/skaphos/gg/internal/vcs"
)

// BranchCompare reports how far each local branch has drifted from a
// comparison ref.
type BranchCompare struct {
	Dir        string
	CompareRef string
	// Trunk is skipped.
	Trunk   string
	Adapter vcs.Adapter
}

func NewBranchCompare(dir, compareRef, trunk string, adapter vcs.Adapter) *BranchCompare {
	return &BranchCompare{Dir: dir, CompareRef: compareRef, Trunk: trunk, Adapter: adapter}
}

func (b *BranchCompare) Name() string { return b.Dir }

// Execute returns one line per branch. A branch that cannot be resolved gets
// its own message and does not fail the others.
func (b *BranchCompare) Execute(ctx context.Context, _ ProgressFunc) (string, error) {
	branches, err := b.Adapter.LocalBranches(ctx, b.Dir)
	if err != nil {
		return "", fmt.Errorf("list local branches: %w", err)
	}
	var lines []string
	for _, branch := range branches {
		if branch == b.Trunk {
			continue
		}
		lines = append(lines, b.compare(ctx, branch))
	}
	if len(lines) == 0 {
		return "no branches to compare", nil
	}
	return strings.Join(lines, "\n"), nil
}

func (b *BranchCompare) compare(ctx context.Context, branch string) string {
	if _, err := b.Adapter.ResolveRef(ctx, b.Dir, branch); err != nil {
		return fmt.Sprintf("No such branch %s found", branch)
	}
	// An unresolvable compare ref counts as nothing to compare against.
	var ahead, behind int
	if _, err := b.Adapter.ResolveRef(ctx, b.Dir, b.CompareRef); err == nil {
		ahead, behind, _ = b.Adapter.AheadBehind(ctx, b.Dir, branch, b.CompareRef)
	}
	var parts []string
	if ahead > 0 {
		parts = append(parts, fmt.Sprintf("%d ahead", ahead))
	}
	if behind > 0 {
		parts = append(parts, fmt.Sprintf("%d behind", behind))
	}
	if len(parts) == 0 {
		parts = append(parts, "up to date")
	}
	return fmt.Sprintf("Branch %s: %s", branch, strings.Join(parts, ", "))
}
