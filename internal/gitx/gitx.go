// Package gitx provides helpers for executing git commands and parsing
// their output. It shells out to the installed git binary.
package gitx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/skaphos/gg/internal/model"
)

// Runner executes git commands in a given repo directory.
// This interface allows mocking in tests.
type Runner interface {
	// Run executes a git command in the given directory and returns its
	// stdout. Stderr is folded into the returned error on failure.
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// StreamRunner is a Runner that can also stream stderr line by line while a
// long-running command (fetch, clone) is in flight.
type StreamRunner interface {
	Runner
	// Stream runs git with extra environment entries appended to the process
	// environment. onLine receives every stderr line, split on \r and \n.
	Stream(ctx context.Context, dir string, env []string, onLine func(string), args ...string) error
}

// GitRunner is the default Runner implementation that shells out to git.
type GitRunner struct {
	// GitBin is the path to the git binary. Defaults to "git".
	GitBin string
}

// maxErrorLines bounds how much stderr is kept for error messages.
const maxErrorLines = 5

func (g *GitRunner) bin() string {
	if g.GitBin == "" {
		return "git"
	}
	return g.GitBin
}

// Run executes a git command.
func (g *GitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.bin(), args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if errText != "" {
			return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), errText, err)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimRight(stdout.String(), "\r\n"), nil
}

// Stream executes a git command and forwards stderr progress lines.
func (g *GitRunner) Stream(ctx context.Context, dir string, env []string, onLine func(string), args ...string) error {
	cmd := exec.CommandContext(ctx, g.bin(), args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, env...)
	cmd.Stdout = io.Discard
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	var tail []string
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if onLine != nil {
			onLine(line)
		}
		if !isProgressLine(line) {
			tail = append(tail, line)
			if len(tail) > maxErrorLines {
				tail = tail[1:]
			}
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		if len(tail) > 0 {
			return fmt.Errorf("git %s: %s: %w", args[0], strings.Join(tail, "; "), err)
		}
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	if scanErr != nil && !errors.Is(scanErr, os.ErrClosed) {
		return fmt.Errorf("read git %s output: %w", args[0], scanErr)
	}
	return nil
}

// scanProgressLines splits on both carriage returns and newlines, since git
// redraws progress counters in place with \r.
func scanProgressLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// IsBare checks whether the given path is a bare git repository.
func IsBare(ctx context.Context, r Runner, dir string) (bool, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--is-bare-repository")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}

// Remotes returns all configured remotes for the repo.
func Remotes(ctx context.Context, r Runner, dir string) ([]model.Remote, error) {
	out, err := r.Run(ctx, dir, "remote")
	if err != nil {
		return nil, fmt.Errorf("git remote: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	names := strings.Split(strings.TrimSpace(out), "\n")
	var remotes []model.Remote
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		url, err := r.Run(ctx, dir, "remote", "get-url", name)
		if err != nil {
			continue
		}
		remotes = append(remotes, model.Remote{
			Name: name,
			URL:  strings.TrimSpace(url),
		})
	}
	return remotes, nil
}

// StatusEntries returns every non-current path in the working tree and index.
func StatusEntries(ctx context.Context, r Runner, dir string) ([]model.StatusEntry, error) {
	out, err := r.Run(ctx, dir, "status", "--porcelain=v1", "--untracked-files=normal")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return ParsePorcelainStatus(out), nil
}

// TrackingStatus returns upstream tracking info for the current branch.
func TrackingStatus(ctx context.Context, r Runner, dir string) (model.Tracking, error) {
	out, err := r.Run(ctx, dir, "for-each-ref", "--format=%(refname:short)|%(upstream:short)|%(upstream:track)|%(upstream:trackshort)", "refs/heads")
	if err != nil {
		return model.Tracking{Status: model.TrackingNone}, nil
	}

	head, err := r.Run(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return model.Tracking{Status: model.TrackingNone}, nil
	}
	head = strings.TrimSpace(head)

	entries := ParseForEachRef(out)
	for _, e := range entries {
		if e.Branch != head {
			continue
		}
		if e.Upstream == "" {
			return model.Tracking{Status: model.TrackingNone}, nil
		}
		if strings.Contains(e.Track, "[gone]") {
			return model.Tracking{
				Upstream: e.Upstream,
				Status:   model.TrackingGone,
			}, nil
		}

		ahead, behind, revErr := AheadBehind(ctx, r, dir, head, e.Upstream)
		if revErr != nil {
			// Fall back to for-each-ref track info
			return trackingFromShort(e), nil
		}

		var status model.TrackingStatus
		switch {
		case ahead > 0 && behind > 0:
			status = model.TrackingDiverged
		case ahead > 0:
			status = model.TrackingAhead
		case behind > 0:
			status = model.TrackingBehind
		default:
			status = model.TrackingEqual
		}

		return model.Tracking{
			Upstream: e.Upstream,
			Status:   status,
			Ahead:    &ahead,
			Behind:   &behind,
		}, nil
	}

	return model.Tracking{Status: model.TrackingNone}, nil
}

func trackingFromShort(e ForEachRefEntry) model.Tracking {
	var status model.TrackingStatus
	switch e.TrackShort {
	case ">":
		status = model.TrackingAhead
	case "<":
		status = model.TrackingBehind
	case "<>":
		status = model.TrackingDiverged
	case "=":
		status = model.TrackingEqual
	default:
		status = model.TrackingNone
	}
	return model.Tracking{
		Upstream: e.Upstream,
		Status:   status,
	}
}

// LocalBranches lists the short names of all local branches.
func LocalBranches(ctx context.Context, r Runner, dir string) ([]string, error) {
	out, err := r.Run(ctx, dir, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, fmt.Errorf("git for-each-ref: %w", err)
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// ResolveRef resolves a revision to a commit id.
func ResolveRef(ctx context.Context, r Runner, dir, ref string) (string, error) {
	out, err := r.Run(ctx, dir, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownRevision, ref)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownRevision, ref)
	}
	return id, nil
}

// AheadBehind counts commits reachable from tip but not upstream (ahead) and
// the reverse (behind).
func AheadBehind(ctx context.Context, r Runner, dir, tip, upstream string) (int, int, error) {
	out, err := r.Run(ctx, dir, "rev-list", "--left-right", "--count", tip+"..."+upstream)
	if err != nil {
		return 0, 0, err
	}
	ahead, behind := ParseRevListCount(out)
	return ahead, behind, nil
}

// Fetch downloads objects from remote and updates its remote-tracking refs.
// The returned counters are the last progress seen on the transfer.
func Fetch(ctx context.Context, r StreamRunner, dir, remote string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error) {
	return streamTransfer(ctx, r, dir, env, onProgress,
		"-c", "fetch.recurseSubmodules=false", "fetch", "--progress", "--no-recurse-submodules", remote)
}

// Clone clones remoteURL into dest.
func Clone(ctx context.Context, r StreamRunner, remoteURL, dest string, env []string, onProgress func(model.TransferProgress)) (model.TransferProgress, error) {
	return streamTransfer(ctx, r, "", env, onProgress, "clone", "--progress", remoteURL, dest)
}

func streamTransfer(ctx context.Context, r StreamRunner, dir string, env []string, onProgress func(model.TransferProgress), args ...string) (model.TransferProgress, error) {
	var p model.TransferProgress
	err := r.Stream(ctx, dir, env, func(line string) {
		if !ParseTransferProgress(line, &p) {
			return
		}
		if onProgress != nil {
			onProgress(p)
		}
	}, args...)
	return p, err
}
