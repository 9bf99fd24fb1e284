// Package credentials supplies ssh key material to git transfers.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultUsername is used when no ssh username is configured.
const DefaultUsername = "git"

// ErrNoKey is returned when no agent is configured and the private key file
// does not exist.
var ErrNoKey = errors.New("ssh private key not found")

// SSH describes how to authenticate an ssh transport.
type SSH struct {
	PrivateKey string `yaml:"privateKey,omitempty"`
	Username   string `yaml:"username,omitempty"`
	SSHAgent   bool   `yaml:"sshAgent,omitempty"`
}

// Provider resolves ssh credentials for a remote URL.
type Provider interface {
	SSH(ctx context.Context, remoteURL string) (SSH, error)
}

// Static returns the same credentials for every URL.
type Static struct {
	Config SSH
}

// NewStatic fills in defaults: $HOME/.ssh/id_rsa and user "git".
func NewStatic(cfg SSH) Static {
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.PrivateKey == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.PrivateKey = filepath.Join(home, ".ssh", "id_rsa")
		}
	}
	cfg.PrivateKey = expandHome(cfg.PrivateKey)
	return Static{Config: cfg}
}

func (s Static) SSH(_ context.Context, _ string) (SSH, error) {
	return s.Config, nil
}

// Env returns the process environment that makes git use these credentials.
func (s SSH) Env() ([]string, error) {
	user := s.Username
	if user == "" {
		user = DefaultUsername
	}
	if s.SSHAgent {
		return []string{"GIT_SSH_COMMAND=ssh -l " + shellQuote(user)}, nil
	}
	if s.PrivateKey == "" {
		return nil, ErrNoKey
	}
	if _, err := os.Stat(s.PrivateKey); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoKey, s.PrivateKey)
	}
	cmd := fmt.Sprintf("ssh -i %s -o IdentitiesOnly=yes -l %s", shellQuote(s.PrivateKey), shellQuote(user))
	return []string{"GIT_SSH_COMMAND=" + cmd}, nil
}

// shellQuote quotes s for GIT_SSH_COMMAND, which git runs through sh.
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>*?()[]{}#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
