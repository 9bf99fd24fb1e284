package gg

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/skaphos/gg/internal/engine"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [PATH]",
	Short: "Fetch a remote in every repository under PATH",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, err := scanOptions(cmd, args)
		if err != nil {
			return err
		}
		remote, _ := cmd.Flags().GetString("remote")
		return runBatch(cmd, func(ctx context.Context, s *session, opts engine.RunOptions) error {
			return s.engine.Fetch(ctx, remote, opts)
		}, scan)
	},
}

func init() {
	addScanFlags(fetchCmd)
	fetchCmd.Flags().String("remote", "", "remote to fetch (defaults to the configured remote, then origin)")
	rootCmd.AddCommand(fetchCmd)
}
