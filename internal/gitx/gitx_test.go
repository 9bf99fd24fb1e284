package gitx_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/gg/internal/gitx"
	"github.com/skaphos/gg/internal/model"
)

var _ = Describe("GitRunner.Run", func() {
	var runner *gitx.GitRunner

	BeforeEach(func() {
		runner = &gitx.GitRunner{}
	})

	It("runs git version successfully", func() {
		out, err := runner.Run(context.Background(), "", "version")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("git version"))
	})

	It("errors for nonexistent directory", func() {
		_, err := runner.Run(context.Background(), "/nonexistent/path/xyz", "status")
		Expect(err).To(HaveOccurred())
	})

	It("respects context cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runner.Run(ctx, "", "version")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("IsBare", func() {
	It("returns true for a bare repo", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --is-bare-repository": {Output: "true"},
		}}
		ok, err := gitx.IsBare(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("returns false for a non-bare repo", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --is-bare-repository": {Output: "false"},
		}}
		ok, err := gitx.IsBare(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Remotes", func() {
	It("returns all remotes with URLs", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote":                  {Output: "origin\nupstream"},
			"/repo:remote get-url origin":   {Output: "https://github.com/org/repo.git"},
			"/repo:remote get-url upstream": {Output: "https://github.com/other/repo.git"},
		}}
		remotes, err := gitx.Remotes(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(remotes).To(Equal([]model.Remote{
			{Name: "origin", URL: "https://github.com/org/repo.git"},
			{Name: "upstream", URL: "https://github.com/other/repo.git"},
		}))
	})

	It("returns nil for no remotes", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote": {Output: ""},
		}}
		remotes, err := gitx.Remotes(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(remotes).To(BeNil())
	})

	It("skips remotes whose URL cannot be fetched", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:remote":                {Output: "origin\nbad"},
			"/repo:remote get-url origin": {Output: "https://github.com/org/repo.git"},
			"/repo:remote get-url bad":    {Err: errors.New("no such remote")},
		}}
		remotes, err := gitx.Remotes(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(remotes).To(HaveLen(1))
		Expect(remotes[0].Name).To(Equal("origin"))
	})
})

var _ = Describe("StatusEntries", func() {
	It("returns parsed entries", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:status --porcelain=v1 --untracked-files=normal": {Output: "M  file.go\n?? new.go"},
		}}
		entries, err := gitx.StatusEntries(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[1].Path).To(Equal("new.go"))
	})

	It("returns no entries for a clean tree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:status --porcelain=v1 --untracked-files=normal": {Output: ""},
		}}
		entries, err := gitx.StatusEntries(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("wraps git failures", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:status --porcelain=v1 --untracked-files=normal": {Err: errors.New("boom")},
		}}
		_, err := gitx.StatusEntries(context.Background(), mock, "/repo")
		Expect(err).To(MatchError(ContainSubstring("git status")))
	})
})

var _ = Describe("TrackingStatus", func() {
	It("returns tracking ahead", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:for-each-ref --format=%(refname:short)|%(upstream:short)|%(upstream:track)|%(upstream:trackshort) refs/heads": {
				Output: "main|origin/main|[ahead 2]|>",
			},
			"/repo:symbolic-ref --quiet --short HEAD":                {Output: "main"},
			"/repo:rev-list --left-right --count main...origin/main": {Output: "2\t0"},
		}}
		t, err := gitx.TrackingStatus(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Status).To(Equal(model.TrackingAhead))
		Expect(*t.Ahead).To(Equal(2))
		Expect(*t.Behind).To(Equal(0))
	})

	It("returns gone for gone upstream", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:for-each-ref --format=%(refname:short)|%(upstream:short)|%(upstream:track)|%(upstream:trackshort) refs/heads": {
				Output: "main|origin/main|[gone]|",
			},
			"/repo:symbolic-ref --quiet --short HEAD": {Output: "main"},
		}}
		t, err := gitx.TrackingStatus(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Status).To(Equal(model.TrackingGone))
	})

	It("returns none when no upstream", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:for-each-ref --format=%(refname:short)|%(upstream:short)|%(upstream:track)|%(upstream:trackshort) refs/heads": {
				Output: "feature|||",
			},
			"/repo:symbolic-ref --quiet --short HEAD": {Output: "feature"},
		}}
		t, err := gitx.TrackingStatus(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Status).To(Equal(model.TrackingNone))
	})

	It("returns none on detached HEAD", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:for-each-ref --format=%(refname:short)|%(upstream:short)|%(upstream:track)|%(upstream:trackshort) refs/heads": {
				Output: "main|origin/main||=",
			},
			"/repo:symbolic-ref --quiet --short HEAD": {Err: errors.New("detached")},
		}}
		t, err := gitx.TrackingStatus(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Status).To(Equal(model.TrackingNone))
	})
})

var _ = Describe("LocalBranches", func() {
	It("lists branch names", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:for-each-ref --format=%(refname:short) refs/heads": {Output: "feature\nmaster\n"},
		}}
		branches, err := gitx.LocalBranches(context.Background(), mock, "/repo")
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(Equal([]string{"feature", "master"}))
	})
})

var _ = Describe("ResolveRef", func() {
	It("returns the commit id", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --verify --quiet origin/master^{commit}": {Output: "abc123\n"},
		}}
		id, err := gitx.ResolveRef(context.Background(), mock, "/repo", "origin/master")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("abc123"))
	})

	It("reports unknown revisions", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-parse --verify --quiet nope^{commit}": {Err: errors.New("exit status 1")},
		}}
		_, err := gitx.ResolveRef(context.Background(), mock, "/repo", "nope")
		Expect(errors.Is(err, gitx.ErrUnknownRevision)).To(BeTrue())
		Expect(gitx.ClassifyError(err)).To(Equal("missing_remote"))
	})
})

var _ = Describe("AheadBehind", func() {
	It("counts both sides", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/repo:rev-list --left-right --count feature...origin/master": {Output: "2\t1"},
		}}
		ahead, behind, err := gitx.AheadBehind(context.Background(), mock, "/repo", "feature", "origin/master")
		Expect(err).NotTo(HaveOccurred())
		Expect(ahead).To(Equal(2))
		Expect(behind).To(Equal(1))
	})
})

var _ = Describe("Fetch", func() {
	const fetchArgs = "/repo:-c fetch.recurseSubmodules=false fetch --progress --no-recurse-submodules origin"

	It("reports progress and returns the final counters", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			fetchArgs: {Lines: []string{
				"remote: Enumerating objects: 5, done.",
				"Receiving objects:  50% (5/10)",
				"Receiving objects: 100% (10/10), 2.00 KiB | 1.00 MiB/s, done.",
				"Resolving deltas: 100% (4/4), completed with 2 local objects.",
			}},
		}}
		var seen []model.TransferProgress
		p, err := gitx.Fetch(context.Background(), mock, "/repo", "origin", []string{"GIT_SSH_COMMAND=ssh"}, func(tp model.TransferProgress) {
			seen = append(seen, tp)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(HaveLen(3))
		Expect(seen[0].ReceivedObjects).To(Equal(5))
		Expect(p.ReceivedObjects).To(Equal(10))
		Expect(p.ReceivedBytes).To(Equal(uint64(2048)))
		Expect(p.LocalObjects).To(Equal(2))
		Expect(mock.Env).To(ConsistOf("GIT_SSH_COMMAND=ssh"))
	})

	It("returns error on fetch failure", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			fetchArgs: {Err: errors.New("fetch failed")},
		}}
		_, err := gitx.Fetch(context.Background(), mock, "/repo", "origin", nil, nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Clone", func() {
	It("clones into the destination", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			":clone --progress git@github.com:org/repo.git /target": {Lines: []string{"Receiving objects: 100% (3/3), done."}},
		}}
		p, err := gitx.Clone(context.Background(), mock, "git@github.com:org/repo.git", "/target", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.TotalObjects).To(Equal(3))
	})
})

var _ = Describe("GitRunner with real git", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gitx-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(tmpDir)).To(Succeed())
	})

	It("detects a real git repo", func() {
		runner := &gitx.GitRunner{}
		ctx := context.Background()

		// Init a repo
		_, err := runner.Run(ctx, tmpDir, "init")
		Expect(err).NotTo(HaveOccurred())

		bare, err := gitx.IsBare(ctx, runner, tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(bare).To(BeFalse())
	})

	It("streams clone progress from a local repository", func() {
		runner := &gitx.GitRunner{}
		ctx := context.Background()

		src := filepath.Join(tmpDir, "src")
		_, err := runner.Run(ctx, "", "init", src)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(src, "a.txt"), []byte("a\n"), 0o644)).To(Succeed())
		_, err = runner.Run(ctx, src, "add", "a.txt")
		Expect(err).NotTo(HaveOccurred())
		_, err = runner.Run(ctx, src, "-c", "user.name=gg", "-c", "user.email=gg@example.com", "commit", "-m", "init")
		Expect(err).NotTo(HaveOccurred())

		dest := filepath.Join(tmpDir, "dest")
		_, err = gitx.Clone(ctx, runner, "file://"+src, dest, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		entries, err := gitx.StatusEntries(ctx, runner, dest)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("includes stderr in stream failures", func() {
		runner := &gitx.GitRunner{}
		err := runner.Stream(context.Background(), tmpDir, nil, nil, "fetch", "nowhere")
		Expect(err).To(MatchError(ContainSubstring("git fetch")))
	})

	It("detects a bare repo", func() {
		runner := &gitx.GitRunner{}
		ctx := context.Background()

		bareDir := filepath.Join(tmpDir, "bare.git")
		_, err := runner.Run(ctx, "", "init", "--bare", bareDir)
		Expect(err).NotTo(HaveOccurred())

		bare, err := gitx.IsBare(ctx, runner, bareDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(bare).To(BeTrue())
	})
})
