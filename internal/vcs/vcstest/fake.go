// Package vcstest provides an in-memory vcs.Adapter for tests.
package vcstest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/skaphos/gg/internal/gitx"
	"github.com/skaphos/gg/internal/model"
)

// Repo is the canned state of one fake repository.
type Repo struct {
	Bare      bool
	Remotes   []model.Remote
	Entries   []model.StatusEntry
	StatusErr error
	Tracking  model.Tracking
	Branches  []string
	// Refs maps resolvable revisions to commit ids.
	Refs map[string]string
	// Counts maps "tip...upstream" to {ahead, behind}.
	Counts map[string][2]int
	// FetchProgress is replayed to the progress callback on Fetch.
	FetchProgress []model.TransferProgress
	FetchErr      error
}

// Fake implements vcs.Adapter over a map of fake repositories keyed by path.
type Fake struct {
	mu    sync.Mutex
	Repos map[string]*Repo
	// CloneProgress is replayed on every Clone.
	CloneProgress []model.TransferProgress
	// CloneErrs fails clones into the given destinations.
	CloneErrs map[string]error

	cloned []string
	envs   map[string][]string
}

// NewFake returns a Fake with the given repositories.
func NewFake(repos map[string]*Repo) *Fake {
	if repos == nil {
		repos = map[string]*Repo{}
	}
	return &Fake{Repos: repos, CloneErrs: map[string]error{}, envs: map[string][]string{}}
}

func (f *Fake) repo(dir string) (*Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Repos[dir]
	if !ok {
		return nil, fmt.Errorf("not a git repository: %s", dir)
	}
	return r, nil
}

// Cloned returns the destinations cloned so far, in call order.
func (f *Fake) Cloned() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cloned)
}

// Env returns the extra environment passed to the last Fetch or Clone that
// targeted path.
func (f *Fake) Env(path string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.envs[path]
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) IsBare(_ context.Context, dir string) (bool, error) {
	r, err := f.repo(dir)
	if err != nil {
		return false, err
	}
	return r.Bare, nil
}

func (f *Fake) Remotes(_ context.Context, dir string) ([]model.Remote, error) {
	r, err := f.repo(dir)
	if err != nil {
		return nil, err
	}
	return r.Remotes, nil
}

func (f *Fake) StatusEntries(_ context.Context, dir string) ([]model.StatusEntry, error) {
	r, err := f.repo(dir)
	if err != nil {
		return nil, err
	}
	return r.Entries, r.StatusErr
}

func (f *Fake) TrackingStatus(_ context.Context, dir string) (model.Tracking, error) {
	r, err := f.repo(dir)
	if err != nil {
		return model.Tracking{}, err
	}
	if r.Tracking.Status == "" {
		return model.Tracking{Status: model.TrackingNone}, nil
	}
	return r.Tracking, nil
}

func (f *Fake) LocalBranches(_ context.Context, dir string) ([]string, error) {
	r, err := f.repo(dir)
	if err != nil {
		return nil, err
	}
	return r.Branches, nil
}

func (f *Fake) ResolveRef(_ context.Context, dir, ref string) (string, error) {
	r, err := f.repo(dir)
	if err != nil {
		return "", err
	}
	id, ok := r.Refs[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", gitx.ErrUnknownRevision, ref)
	}
	return id, nil
}

func (f *Fake) AheadBehind(_ context.Context, dir, tip, upstream string) (int, int, error) {
	r, err := f.repo(dir)
	if err != nil {
		return 0, 0, err
	}
	c, ok := r.Counts[tip+"..."+upstream]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s...%s", gitx.ErrUnknownRevision, tip, upstream)
	}
	return c[0], c[1], nil
}

func (f *Fake) Fetch(_ context.Context, dir, _ string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error) {
	r, err := f.repo(dir)
	if err != nil {
		return model.TransferProgress{}, err
	}
	f.mu.Lock()
	f.envs[dir] = env
	f.mu.Unlock()
	var last model.TransferProgress
	for _, p := range r.FetchProgress {
		last = p
		if onProgress != nil {
			onProgress(p)
		}
	}
	return last, r.FetchErr
}

func (f *Fake) Clone(_ context.Context, _ string, dest string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error) {
	f.mu.Lock()
	f.envs[dest] = env
	cloneErr := f.CloneErrs[dest]
	if cloneErr == nil {
		f.cloned = append(f.cloned, dest)
	}
	f.mu.Unlock()
	var last model.TransferProgress
	for _, p := range f.CloneProgress {
		last = p
		if onProgress != nil {
			onProgress(p)
		}
	}
	return last, cloneErr
}

func (f *Fake) NormalizeURL(rawURL string) string {
	return gitx.NormalizeURL(rawURL)
}

func (f *Fake) PrimaryRemote(remoteNames []string) string {
	return gitx.PrimaryRemote(remoteNames)
}
