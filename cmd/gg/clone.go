package gg

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/skaphos/gg/internal/engine"
	"github.com/skaphos/gg/internal/strutil"
)

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone repositories from the command line and the config file",
	Long: "Clones every --repo-url under --local-path, plus every cloneRepos entry of the config file. " +
		"When both target the same directory the command line entry is used.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		urls, _ := cmd.Flags().GetStringArray("repo-url")
		localPath, _ := cmd.Flags().GetString("local-path")
		req := engine.CloneRequest{URLs: strutil.SplitAllCSV(urls), Parent: localPath}
		return runBatch(cmd, func(ctx context.Context, s *session, opts engine.RunOptions) error {
			if len(engine.PlanClones(req, s.cfg.CloneRepos)) == 0 {
				return errors.New("nothing to clone: pass --repo-url or add cloneRepos to the config")
			}
			return s.engine.Clone(ctx, req, opts)
		}, engine.ScanOptions{})
	},
}

func init() {
	cloneCmd.Flags().StringArrayP("repo-url", "r", nil, "remote repository url (repeatable)")
	cloneCmd.Flags().StringP("local-path", "l", ".", "directory to clone command line urls into")
	rootCmd.AddCommand(cloneCmd)
}
