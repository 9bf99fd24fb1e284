package action

import (
	"context"
	"fmt"

	"github.com/skaphos/gg/internal/credentials"
	"github.com/skaphos/gg/internal/vcs"
)

// Clone materializes a remote repository at a local path.
type Clone struct {
	URL         string
	Path        string
	Adapter     vcs.Adapter
	Credentials credentials.Provider
}

func NewClone(url, path string, adapter vcs.Adapter, creds credentials.Provider) *Clone {
	return &Clone{URL: url, Path: path, Adapter: adapter, Credentials: creds}
}

func (c *Clone) Name() string { return c.URL }

func (c *Clone) Execute(ctx context.Context, report ProgressFunc) (string, error) {
	env, err := sshEnv(ctx, c.Credentials, c.URL)
	if err != nil {
		return "", err
	}
	if _, err := c.Adapter.Clone(ctx, c.URL, c.Path, env, report); err != nil {
		return "", err
	}
	return fmt.Sprintf("cloned %s into %s", c.URL, c.Path), nil
}
