package action

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/skaphos/gg/internal/model"
	"github.com/skaphos/gg/internal/vcs"
)

// NoChanges is the outcome of a clean repository.
const NoChanges = "no changes"

// Status summarizes the working tree, index and upstream of one repository.
type Status struct {
	Dir     string
	Adapter vcs.Adapter
}

func NewStatus(dir string, adapter vcs.Adapter) *Status {
	return &Status{Dir: dir, Adapter: adapter}
}

func (s *Status) Name() string { return s.Dir }

func (s *Status) Execute(ctx context.Context, _ ProgressFunc) (string, error) {
	bare, err := s.Adapter.IsBare(ctx, s.Dir)
	if err != nil {
		return "", err
	}
	if bare {
		return "bare", nil
	}
	entries, err := s.Adapter.StatusEntries(ctx, s.Dir)
	if err != nil {
		return "", err
	}
	labels := ChangeLabels(entries)

	tracking, err := s.Adapter.TrackingStatus(ctx, s.Dir)
	if err == nil {
		if tracking.Ahead != nil && *tracking.Ahead > 0 {
			labels = append(labels, fmt.Sprintf("%d ahead", *tracking.Ahead))
		}
		if tracking.Behind != nil && *tracking.Behind > 0 {
			labels = append(labels, fmt.Sprintf("%d behind", *tracking.Behind))
		}
	}
	if len(labels) == 0 {
		return NoChanges, nil
	}
	return strings.Join(labels, ", "), nil
}

// ChangeLabels returns the sorted, deduplicated change categories of entries.
func ChangeLabels(entries []model.StatusEntry) []string {
	var labels []string
	for _, e := range entries {
		for _, k := range e.Kinds() {
			labels = append(labels, string(k))
		}
	}
	slices.Sort(labels)
	return slices.Compact(labels)
}
