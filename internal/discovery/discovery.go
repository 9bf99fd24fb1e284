// Package discovery walks a root directory to find git repositories.
package discovery

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MarkerName is the entry that identifies a working tree.
const MarkerName = ".git"

// MarkerKind tells how an entry identifies a repository.
type MarkerKind int

const (
	// NotMarker is an ordinary directory.
	NotMarker MarkerKind = iota
	// GitDir is a .git directory.
	GitDir
	// GitFile is a .git file pointing at a linked git dir (worktrees, submodules).
	GitFile
	// BareRepo is a directory that is itself a bare repository.
	BareRepo
)

// Entry is one item yielded by Scanner.Walk.
type Entry struct {
	// Path is the filesystem path of the entry.
	Path string
	// Rel is the slash-separated path relative to the walk root, "." for the root.
	Rel string
	// Depth is 0 for the root.
	Depth  int
	Marker MarkerKind
}

// RepoRoot returns the repository directory a marker entry belongs to.
func (e Entry) RepoRoot() string {
	switch e.Marker {
	case GitDir, GitFile:
		return filepath.Dir(e.Path)
	case BareRepo:
		return e.Path
	default:
		return ""
	}
}

// Filter decides which directories the walk prunes. It is immutable after
// construction.
type Filter struct {
	ignore         []*regexp.Regexp
	exclude        []string
	traverseHidden bool
}

// NewFilter builds a Filter from compiled ignore patterns and doublestar
// exclude globs.
func NewFilter(ignore []*regexp.Regexp, exclude []string, traverseHidden bool) *Filter {
	return &Filter{
		ignore:         append([]*regexp.Regexp(nil), ignore...),
		exclude:        append([]string(nil), exclude...),
		traverseHidden: traverseHidden,
	}
}

// Excluded reports whether the directory at rel (slash separated, relative to
// the root) and everything below it is pruned. The root is never excluded.
func (f *Filter) Excluded(rel string, depth int) bool {
	if depth == 0 || f == nil {
		return false
	}
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	name := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		name = rel[i+1:]
	}
	if !f.traverseHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, re := range f.ignore {
		if re.MatchString(rel) {
			return true
		}
	}
	return MatchesExclude(rel, f.exclude)
}

// MatchesExclude checks whether a path matches any of the given exclude
// glob patterns.
func MatchesExclude(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashPath := filepath.ToSlash(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		match, err := doublestar.Match(pattern, slashPath)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

// Scanner walks a directory tree. Symlinks are never followed and the walk
// never crosses onto another filesystem.
type Scanner struct {
	Filter *Filter
}

// NewScanner returns a Scanner using f. A nil filter prunes nothing.
func NewScanner(f *Filter) *Scanner {
	return &Scanner{Filter: f}
}

// Walk returns a lazy sequence over the directories beneath root plus every
// .git marker. Marker directories are never descended into. A directory that
// cannot be read yields a non-nil error and the walk moves on.
func (s *Scanner) Walk(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		root = filepath.Clean(root)
		rootDev, haveRootDev := uint64(0), false
		if info, err := os.Stat(root); err == nil {
			rootDev, haveRootDev = deviceID(info)
		}
		linked := map[string]struct{}{}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			depth := 0
			if rel != "." {
				depth = strings.Count(rel, "/") + 1
			}
			entry := Entry{Path: path, Rel: rel, Depth: depth}

			if err != nil {
				if !yield(entry, err) {
					return fs.SkipAll
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if depth > 0 && d.Name() == MarkerName {
				switch {
				case d.IsDir():
					entry.Marker = GitDir
				case d.Type().IsRegular():
					entry.Marker = GitFile
					if gitdir, ok := gitdirFromFile(path); ok {
						linked[gitdir] = struct{}{}
					}
				default:
					return nil
				}
				if !yield(entry, nil) {
					return fs.SkipAll
				}
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if !d.IsDir() {
				return nil
			}
			if s.Filter.Excluded(rel, depth) {
				return fs.SkipDir
			}
			if _, ok := linked[path]; ok {
				return fs.SkipDir
			}
			if depth > 0 && haveRootDev {
				if info, infoErr := d.Info(); infoErr == nil {
					if dev, ok := deviceID(info); ok && dev != rootDev {
						return fs.SkipDir
					}
				}
			}
			if isBareRepo(path) {
				entry.Marker = BareRepo
				if !yield(entry, nil) {
					return fs.SkipAll
				}
				return fs.SkipDir
			}
			if !yield(entry, nil) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// Repositories keeps the marker entries of seq and yields their repository
// roots. Errors pass through unchanged.
func Repositories(seq iter.Seq2[Entry, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for entry, err := range seq {
			if err != nil {
				if !yield(entry.Path, err) {
					return
				}
				continue
			}
			if entry.Marker == NotMarker {
				continue
			}
			if !yield(entry.RepoRoot(), nil) {
				return
			}
		}
	}
}

// ErrorPolicy selects what Scan does with per-entry errors.
type ErrorPolicy int

const (
	// SkipErrors logs scan errors at warn and keeps walking.
	SkipErrors ErrorPolicy = iota
	// FailOnError aborts the scan on the first error.
	FailOnError
)

// Options configures the discovery scan.
type Options struct {
	Root   string
	Filter *Filter
	Policy ErrorPolicy
	Logger *slog.Logger
}

// Scan walks opts.Root and returns every repository root found.
func Scan(ctx context.Context, opts Options) ([]string, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "scan", Path: absRoot, Err: errors.New("not a directory")}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var repos []string
	for repo, err := range Repositories(NewScanner(opts.Filter).Walk(absRoot)) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			if opts.Policy == FailOnError {
				return nil, err
			}
			logger.Warn("skipping unreadable path", "path", repo, "error", err)
			continue
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func isBareRepo(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil {
		return false
	}
	for _, sub := range []string{"objects", "refs"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

func gitdirFromFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, "gitdir:") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(content, "gitdir:"))
	if raw == "" {
		return "", false
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), true
	}
	return filepath.Clean(filepath.Join(filepath.Dir(path), raw)), true
}
