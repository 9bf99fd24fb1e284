package gg

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/skaphos/gg/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status [PATH]",
	Short: "Show working tree changes of every repository under PATH",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, err := scanOptions(cmd, args)
		if err != nil {
			return err
		}
		return runBatch(cmd, func(ctx context.Context, s *session, opts engine.RunOptions) error {
			return s.engine.Status(ctx, opts)
		}, scan)
	},
}

func init() {
	addScanFlags(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
