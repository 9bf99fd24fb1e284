// Package gg contains the Cobra command tree for the gg CLI.
package gg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skaphos/gg/internal/config"
	"github.com/skaphos/gg/internal/credentials"
	"github.com/skaphos/gg/internal/engine"
	"github.com/skaphos/gg/internal/logging"
	"github.com/skaphos/gg/internal/progress"
	"github.com/skaphos/gg/internal/vcs"
)

const (
	exitOK          = 0
	exitTaskFailure = 2
	exitFatal       = 3
)

var (
	// Global flags
	flagVerbose     int
	flagQuiet       bool
	flagConfig      string
	flagNoColor     bool
	flagJobs        int
	flagLogFile     string
	flagFailOnError bool
	flagStrict      bool
	// exitCode tracks the highest severity observed during a command run.
	exitCode int
	// isTerminalFD is overridable in tests.
	isTerminalFD = term.IsTerminal
	// exitFunc is overridable in tests.
	exitFunc = os.Exit
	// newAdapter is overridable in tests.
	newAdapter = func() vcs.Adapter { return vcs.NewGitAdapter(nil) }
)

var rootCmd = &cobra.Command{
	Use:   "gg",
	Short: "Run git actions across a tree of repositories",
	Long:  "gg finds every git repository below a directory and reports status, fetches, clones or compares branches for all of them in parallel.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// `NO_COLOR` is a standard opt-out and should behave like --no-color.
		if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
			flagNoColor = true
		}
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase output verbosity (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "override config file path")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().IntVarP(&flagJobs, "jobs", "j", 0, "number of parallel tasks (0 uses the config value, then one per CPU)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write logs to a rotating file")
	rootCmd.PersistentFlags().BoolVar(&flagFailOnError, "fail-on-error", false, "exit with status 2 when any task fails")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "abort when a directory cannot be scanned")
}

// Execute runs the root command.
func Execute() {
	exitFunc(ExecuteWithExitCode())
}

// ExecuteWithExitCode runs the root command and returns a shell-friendly exit code.
func ExecuteWithExitCode() int {
	exitCode = exitOK
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return exitFatal
	}
	return exitCode
}

func raiseExitCode(code int) {
	// Keep the highest severity: 0 success, 2 task failures, 3 fatal.
	if code > exitCode {
		exitCode = code
	}
}

func debugf(cmd *cobra.Command, format string, args ...any) {
	if flagQuiet || flagVerbose <= 0 {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// session is the per-invocation state shared by the batch commands.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	engine *engine.Engine
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func newSession(cmd *cobra.Command) (*session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfgPath, err := config.ResolveConfigPath(flagConfig, cwd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}
	debugf(cmd, "using config %s", cfgPath)

	logFile := flagLogFile
	if logFile == "" {
		logFile = cfg.Log.File
	}
	logger, closer, err := logging.Setup(logging.Options{
		Level:   logLevel(cfg.Log.Level),
		File:    logFile,
		Stderr:  cmd.ErrOrStderr(),
		NoColor: flagNoColor,
	})
	if err != nil {
		return nil, err
	}
	eng := engine.New(cfg, newAdapter(), credentials.NewStatic(cfg.SSH), logger)
	return &session{cfg: cfg, logger: logger, closer: closer, engine: eng}, nil
}

func logLevel(configured string) string {
	switch {
	case flagVerbose > 0:
		return "debug"
	case flagQuiet:
		return "error"
	case configured != "":
		return configured
	default:
		return "info"
	}
}

// newTracker draws live lines on a terminal and plain lines elsewhere.
func newTracker(cmd *cobra.Command) *progress.Tracker {
	out := cmd.OutOrStdout()
	if isTerminalWriter(out) {
		return progress.NewTracker(progress.NewLiveSurface(out, flagNoColor))
	}
	return progress.NewTracker(progress.NewLineSurface(out, flagNoColor, flagVerbose > 0))
}

// finishBatch applies --fail-on-error once the batch has joined.
func finishBatch(s *session, tracker *progress.Tracker, batchErr error) error {
	sum := tracker.Summary()
	s.logger.Debug("batch finished", "total", sum.Total, "done", sum.Done, "failed", sum.Failed)
	if batchErr != nil {
		// The batch may have failed before joining, which closes the surface.
		_ = tracker.Close()
		return batchErr
	}
	if sum.Failed > 0 && flagFailOnError {
		raiseExitCode(exitTaskFailure)
	}
	return nil
}

// runBatch wires a session and tracker around one engine call.
func runBatch(cmd *cobra.Command, fn func(ctx context.Context, s *session, opts engine.RunOptions) error, scan engine.ScanOptions) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	scan.Strict = flagStrict
	tracker := newTracker(cmd)
	err = fn(cmd.Context(), s, engine.RunOptions{ScanOptions: scan, Jobs: flagJobs, Tracker: tracker})
	return finishBatch(s, tracker, err)
}
