package gg

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/skaphos/gg/internal/engine"
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "Compare local branches against a main branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		paths, _ := cmd.Flags().GetStringArray("repo-path")
		compareRef, _ := cmd.Flags().GetString("main-branch")
		trunk, _ := cmd.Flags().GetString("trunk")
		bopts := engine.BranchOptions{RepoPaths: paths, CompareRef: compareRef, Trunk: trunk}
		return runBatch(cmd, func(ctx context.Context, s *session, opts engine.RunOptions) error {
			return s.engine.Branches(ctx, bopts, opts)
		}, engine.ScanOptions{})
	},
}

func init() {
	branchesCmd.Flags().StringArrayP("repo-path", "r", []string{"."}, "repository whose branches are compared (repeatable)")
	branchesCmd.Flags().StringP("main-branch", "b", "", "ref other branches are compared to (defaults to branches.compareRef, then origin/master)")
	branchesCmd.Flags().String("trunk", "", "local branch to leave out (defaults to branches.trunk, then master)")
	rootCmd.AddCommand(branchesCmd)
}
