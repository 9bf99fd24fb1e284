package discovery

import (
	"context"

	"github.com/skaphos/gg/internal/model"
	"github.com/skaphos/gg/internal/vcs"
)

// Result describes a discovered git repository.
type Result struct {
	Path          string         `json:"path"`
	RepoID        string         `json:"repo_id"`
	RemoteURL     string         `json:"remote_url,omitempty"`
	PrimaryRemote string         `json:"primary_remote,omitempty"`
	Remotes       []model.Remote `json:"remotes,omitempty"`
	Bare          bool           `json:"bare"`
}

// Describe inspects the repository at dir.
func Describe(ctx context.Context, adapter vcs.Adapter, dir string) (Result, error) {
	remotes, err := adapter.Remotes(ctx, dir)
	if err != nil {
		return Result{}, err
	}
	bare, err := adapter.IsBare(ctx, dir)
	if err != nil {
		return Result{}, err
	}
	var remoteNames []string
	for _, r := range remotes {
		remoteNames = append(remoteNames, r.Name)
	}
	primary := adapter.PrimaryRemote(remoteNames)
	var remoteURL string
	for _, r := range remotes {
		if r.Name == primary {
			remoteURL = r.URL
			break
		}
	}
	return Result{
		Path:          dir,
		RepoID:        adapter.NormalizeURL(remoteURL),
		RemoteURL:     remoteURL,
		PrimaryRemote: primary,
		Remotes:       remotes,
		Bare:          bare,
	}, nil
}
