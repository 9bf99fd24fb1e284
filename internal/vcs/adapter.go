// SPDX-License-Identifier: MIT
package vcs

import (
	"context"

	"github.com/skaphos/gg/internal/gitx"
	"github.com/skaphos/gg/internal/model"
)

// Adapter defines the repository operations gg actions rely on.
// Actions only talk to this contract so tests can swap in fakes.
type Adapter interface {
	Name() string
	IsBare(ctx context.Context, dir string) (bool, error)
	Remotes(ctx context.Context, dir string) ([]model.Remote, error)
	StatusEntries(ctx context.Context, dir string) ([]model.StatusEntry, error)
	TrackingStatus(ctx context.Context, dir string) (model.Tracking, error)
	LocalBranches(ctx context.Context, dir string) ([]string, error)
	ResolveRef(ctx context.Context, dir, ref string) (string, error)
	AheadBehind(ctx context.Context, dir, tip, upstream string) (int, int, error)
	// Fetch and Clone accept extra process environment (ssh credentials)
	// and report transfer counters as they arrive.
	Fetch(ctx context.Context, dir, remote string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error)
	Clone(ctx context.Context, remoteURL, dest string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error)
	NormalizeURL(rawURL string) string
	PrimaryRemote(remoteNames []string) string
}

// GitAdapter implements Adapter using the git CLI via gitx.
type GitAdapter struct {
	Runner gitx.StreamRunner
}

func NewGitAdapter(runner gitx.StreamRunner) *GitAdapter {
	if runner == nil {
		runner = &gitx.GitRunner{}
	}
	return &GitAdapter{Runner: runner}
}

func (g *GitAdapter) Name() string { return "git" }

func (g *GitAdapter) IsBare(ctx context.Context, dir string) (bool, error) {
	return gitx.IsBare(ctx, g.Runner, dir)
}

func (g *GitAdapter) Remotes(ctx context.Context, dir string) ([]model.Remote, error) {
	return gitx.Remotes(ctx, g.Runner, dir)
}

func (g *GitAdapter) StatusEntries(ctx context.Context, dir string) ([]model.StatusEntry, error) {
	return gitx.StatusEntries(ctx, g.Runner, dir)
}

func (g *GitAdapter) TrackingStatus(ctx context.Context, dir string) (model.Tracking, error) {
	return gitx.TrackingStatus(ctx, g.Runner, dir)
}

func (g *GitAdapter) LocalBranches(ctx context.Context, dir string) ([]string, error) {
	return gitx.LocalBranches(ctx, g.Runner, dir)
}

func (g *GitAdapter) ResolveRef(ctx context.Context, dir, ref string) (string, error) {
	return gitx.ResolveRef(ctx, g.Runner, dir, ref)
}

func (g *GitAdapter) AheadBehind(ctx context.Context, dir, tip, upstream string) (int, int, error) {
	return gitx.AheadBehind(ctx, g.Runner, dir, tip, upstream)
}

func (g *GitAdapter) Fetch(ctx context.Context, dir, remote string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error) {
	return gitx.Fetch(ctx, g.Runner, dir, remote, env, onProgress)
}

func (g *GitAdapter) Clone(ctx context.Context, remoteURL, dest string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error) {
	return gitx.Clone(ctx, g.Runner, remoteURL, dest, env, onProgress)
}

func (g *GitAdapter) NormalizeURL(rawURL string) string {
	return gitx.NormalizeURL(rawURL)
}

func (g *GitAdapter) PrimaryRemote(remoteNames []string) string {
	return gitx.PrimaryRemote(remoteNames)
}
