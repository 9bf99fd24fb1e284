// Package model defines the core data types shared by gg packages.
package model

// Remote represents a single git remote.
type Remote struct {
	// Name is the configured remote name (for example, "origin").
	Name string `json:"name" yaml:"name"`
	// URL is the remote fetch URL.
	URL string `json:"url" yaml:"url"`
}

// TrackingStatus enumerates the possible upstream tracking states.
type TrackingStatus string

const (
	TrackingAhead    TrackingStatus = "ahead"
	TrackingBehind   TrackingStatus = "behind"
	TrackingDiverged TrackingStatus = "diverged"
	TrackingEqual    TrackingStatus = "equal"
	TrackingGone     TrackingStatus = "gone"
	TrackingNone     TrackingStatus = "none"
)

// Tracking represents the upstream tracking relationship for the current branch.
type Tracking struct {
	// Upstream is the tracked upstream ref (for example, "origin/main").
	Upstream string `json:"upstream" yaml:"upstream"`
	// Status is the high-level relationship between local and upstream branches.
	Status TrackingStatus `json:"status" yaml:"status"`
	// Ahead is the number of commits local is ahead of upstream. Nil when unknown.
	Ahead *int `json:"ahead" yaml:"ahead"`
	// Behind is the number of commits local is behind upstream. Nil when unknown.
	Behind *int `json:"behind" yaml:"behind"`
}

// ChangeKind is a category of working tree or index change.
type ChangeKind string

// Labels are the user-facing strings rendered by the status action.
const (
	ChangeNew        ChangeKind = "new files"
	ChangeDeleted    ChangeKind = "deletions"
	ChangeRenamed    ChangeKind = "renames"
	ChangeTypeChange ChangeKind = "typechanges"
	ChangeModified   ChangeKind = "modifications"
)

// StatusEntry is one path reported by `git status`.
type StatusEntry struct {
	// Path is the repository-relative path.
	Path string `json:"path" yaml:"path"`
	// Index is the porcelain X column (staged state).
	Index byte `json:"index" yaml:"index"`
	// Worktree is the porcelain Y column (unstaged state).
	Worktree byte `json:"worktree" yaml:"worktree"`
}

// Kinds returns every change category the entry belongs to.
func (e StatusEntry) Kinds() []ChangeKind {
	if e.Index == '?' && e.Worktree == '?' {
		return []ChangeKind{ChangeNew}
	}
	if e.Index == '!' {
		return nil
	}
	var kinds []ChangeKind
	for _, c := range []byte{e.Index, e.Worktree} {
		switch c {
		case 'A':
			kinds = append(kinds, ChangeNew)
		case 'D':
			kinds = append(kinds, ChangeDeleted)
		case 'R', 'C':
			kinds = append(kinds, ChangeRenamed)
		case 'T':
			kinds = append(kinds, ChangeTypeChange)
		case 'M', 'U':
			kinds = append(kinds, ChangeModified)
		}
	}
	return kinds
}

// TransferProgress is a snapshot of object transfer counters reported while
// fetching or cloning. Counters never decrease within one transfer.
type TransferProgress struct {
	TotalObjects    int
	ReceivedObjects int
	IndexedObjects  int
	TotalDeltas     int
	IndexedDeltas   int
	LocalObjects    int
	ReceivedBytes   uint64
}

// Indexing reports whether every object has been received and the transfer
// has moved on to indexing.
func (p TransferProgress) Indexing() bool {
	return p.TotalObjects > 0 && p.ReceivedObjects == p.TotalObjects
}
