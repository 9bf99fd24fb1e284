// Package engine orchestrates gg commands: it discovers repositories,
// turns them into actions and schedules them against a progress tracker.
package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/skaphos/gg/internal/action"
	"github.com/skaphos/gg/internal/config"
	"github.com/skaphos/gg/internal/credentials"
	"github.com/skaphos/gg/internal/discovery"
	"github.com/skaphos/gg/internal/gitx"
	"github.com/skaphos/gg/internal/progress"
	"github.com/skaphos/gg/internal/sortutil"
	"github.com/skaphos/gg/internal/vcs"
)

// Engine is the core orchestrator for gg operations.
type Engine struct {
	cfg     *config.Config
	adapter vcs.Adapter
	creds   credentials.Provider
	logger  *slog.Logger
}

// New creates an Engine. A nil adapter shells out to git, nil credentials
// come from cfg.SSH and a nil logger discards.
func New(cfg *config.Config, adapter vcs.Adapter, creds credentials.Provider, logger *slog.Logger) *Engine {
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	if adapter == nil {
		adapter = vcs.NewGitAdapter(nil)
	}
	if creds == nil {
		creds = credentials.NewStatic(cfg.SSH)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, adapter: adapter, creds: creds, logger: logger}
}

// Config returns the engine configuration reference.
func (e *Engine) Config() *config.Config { return e.cfg }

// Adapter returns the engine VCS adapter.
func (e *Engine) Adapter() vcs.Adapter { return e.adapter }

// ScanOptions selects and filters the tree to walk.
type ScanOptions struct {
	Root string
	// TraverseHidden is OR-ed with the configured value.
	TraverseHidden bool
	// Exclude is appended to the configured globs.
	Exclude []string
	// Strict aborts on the first unreadable directory.
	Strict bool
}

// RunOptions configures a scheduled batch.
type RunOptions struct {
	ScanOptions
	// Jobs overrides the configured parallelism when non-zero.
	Jobs    int
	Tracker *progress.Tracker
}

// Discover walks opts.Root and returns every repository root found.
func (e *Engine) Discover(ctx context.Context, opts ScanOptions) ([]string, error) {
	ignore, err := e.cfg.IgnorePatterns()
	if err != nil {
		return nil, err
	}
	exclude := append(append([]string(nil), e.cfg.Exclude...), opts.Exclude...)
	policy := discovery.SkipErrors
	if opts.Strict {
		policy = discovery.FailOnError
	}
	repos, err := discovery.Scan(ctx, discovery.Options{
		Root:   opts.Root,
		Filter: discovery.NewFilter(ignore, exclude, e.cfg.TraverseHidden || opts.TraverseHidden),
		Policy: policy,
		Logger: e.logger,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("scan complete", "root", opts.Root, "repos", len(repos))
	return repos, nil
}

// Describe discovers repositories and inspects each one's remotes. Results
// are ordered by repository id, then path.
func (e *Engine) Describe(ctx context.Context, opts ScanOptions, jobs int) ([]discovery.Result, error) {
	repos, err := e.Discover(ctx, opts)
	if err != nil {
		return nil, err
	}
	results := make([]discovery.Result, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	limit := e.jobs(jobs)
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)
	for i, dir := range repos {
		g.Go(func() error {
			res, err := discovery.Describe(gctx, e.adapter, dir)
			if err != nil {
				e.logger.Warn("describe failed", "path", dir, "error", err, "error_class", gitx.ClassifyError(err))
				res = discovery.Result{Path: dir}
			}
			if res.RepoID == "" {
				res.RepoID = "local:" + filepath.ToSlash(dir)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sortutil.SortResults(results)
	return results, nil
}

// Status reports the working tree state of every repository under the root.
func (e *Engine) Status(ctx context.Context, opts RunOptions) error {
	repos, err := e.Discover(ctx, opts.ScanOptions)
	if err != nil {
		return err
	}
	actions := make([]action.Action, 0, len(repos))
	for _, dir := range repos {
		actions = append(actions, action.NewStatus(dir, e.adapter))
	}
	return e.run(ctx, actions, opts)
}

// Fetch fetches remote in every repository under the root. An empty remote
// uses the configured one.
func (e *Engine) Fetch(ctx context.Context, remote string, opts RunOptions) error {
	if strings.TrimSpace(remote) == "" {
		remote = e.cfg.Remote
	}
	repos, err := e.Discover(ctx, opts.ScanOptions)
	if err != nil {
		return err
	}
	actions := make([]action.Action, 0, len(repos))
	for _, dir := range repos {
		actions = append(actions, action.NewFetch(dir, remote, e.adapter, e.creds))
	}
	return e.run(ctx, actions, opts)
}

// CloneRequest is a set of URLs from the command line sharing one parent
// directory.
type CloneRequest struct {
	URLs []string
	// Parent is the directory each URL is cloned under, using the
	// repository name as the final path element.
	Parent string
}

// PlanClones merges command line URLs with the configured cloneRepos.
// Command line entries win when both target the same destination.
func PlanClones(req CloneRequest, configured []config.CloneRepo) []config.CloneRepo {
	parent := req.Parent
	if parent == "" {
		parent = "."
	}
	var plan []config.CloneRepo
	seen := map[string]struct{}{}
	add := func(repo config.CloneRepo) {
		key := filepath.Clean(repo.LocalPath)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		plan = append(plan, repo)
	}
	for _, url := range req.URLs {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		add(config.CloneRepo{RemoteURL: url, LocalPath: filepath.Join(parent, gitx.RepoName(url))})
	}
	for _, repo := range configured {
		if strings.TrimSpace(repo.RemoteURL) == "" || strings.TrimSpace(repo.LocalPath) == "" {
			continue
		}
		add(repo)
	}
	return plan
}

// Clone clones every planned repository.
func (e *Engine) Clone(ctx context.Context, req CloneRequest, opts RunOptions) error {
	plan := PlanClones(req, e.cfg.CloneRepos)
	actions := make([]action.Action, 0, len(plan))
	for _, repo := range plan {
		actions = append(actions, action.NewClone(repo.RemoteURL, repo.LocalPath, e.adapter, e.creds))
	}
	return e.run(ctx, actions, opts)
}

// BranchOptions configures branch comparison. Empty fields use the
// configured values.
type BranchOptions struct {
	RepoPaths  []string
	CompareRef string
	Trunk      string
}

// Branches compares the local branches of each repository against a ref.
func (e *Engine) Branches(ctx context.Context, bopts BranchOptions, opts RunOptions) error {
	compareRef := bopts.CompareRef
	if compareRef == "" {
		compareRef = e.cfg.Branches.CompareRef
	}
	trunk := bopts.Trunk
	if trunk == "" {
		trunk = e.cfg.Branches.Trunk
	}
	paths := bopts.RepoPaths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	actions := make([]action.Action, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		actions = append(actions, action.NewBranchCompare(p, compareRef, trunk, e.adapter))
	}
	return e.run(ctx, actions, opts)
}

func (e *Engine) run(ctx context.Context, actions []action.Action, opts RunOptions) error {
	return RunBatch(ctx, actions, e.jobs(opts.Jobs), opts.Tracker, WithLogger(e.logger))
}

func (e *Engine) jobs(override int) int {
	if override != 0 {
		return override
	}
	return e.cfg.Jobs
}
