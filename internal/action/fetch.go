package action

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/skaphos/gg/internal/credentials"
	"github.com/skaphos/gg/internal/gitx"
	"github.com/skaphos/gg/internal/model"
	"github.com/skaphos/gg/internal/vcs"
)

// Fetch downloads objects from a named remote and updates its
// remote-tracking refs.
type Fetch struct {
	Dir         string
	Remote      string
	Adapter     vcs.Adapter
	Credentials credentials.Provider
}

func NewFetch(dir, remote string, adapter vcs.Adapter, creds credentials.Provider) *Fetch {
	return &Fetch{Dir: dir, Remote: remote, Adapter: adapter, Credentials: creds}
}

func (f *Fetch) Name() string {
	return fmt.Sprintf("%s from %s", f.Remote, f.Dir)
}

func (f *Fetch) Execute(ctx context.Context, report ProgressFunc) (string, error) {
	remotes, err := f.Adapter.Remotes(ctx, f.Dir)
	if err != nil {
		return "", err
	}
	var url string
	found := false
	for _, r := range remotes {
		if r.Name == f.Remote {
			url, found = r.URL, true
			break
		}
	}
	if !found {
		return fmt.Sprintf("remote %q not found for %s", f.Remote, f.Dir), nil
	}

	env, err := sshEnv(ctx, f.Credentials, url)
	if err != nil {
		return "", err
	}
	stats, err := f.Adapter.Fetch(ctx, f.Dir, f.Remote, env, report)
	if err != nil {
		return "", err
	}
	return FetchSummary(stats), nil
}

// FetchSummary describes a completed transfer.
func FetchSummary(p model.TransferProgress) string {
	msg := fmt.Sprintf("Received %d/%d objects in %s", max(p.IndexedObjects, p.ReceivedObjects), p.TotalObjects, humanize.Bytes(p.ReceivedBytes))
	if p.LocalObjects > 0 {
		msg += fmt.Sprintf(" (used %d local objects)", p.LocalObjects)
	}
	return msg
}

// sshEnv asks creds for key material only when url uses ssh.
func sshEnv(ctx context.Context, creds credentials.Provider, url string) ([]string, error) {
	if creds == nil || !gitx.IsSSHURL(url) {
		return nil, nil
	}
	ssh, err := creds.SSH(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("resolve ssh credentials for %s: %w", url, err)
	}
	return ssh.Env()
}
