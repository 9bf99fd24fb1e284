package gg

import (
	"github.com/spf13/cobra"

	"github.com/skaphos/gg/internal/engine"
	"github.com/skaphos/gg/internal/strutil"
)

// addScanFlags registers the directory walk flags shared by tree commands.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("traverse-hidden", "i", false, "also descend into hidden directories")
	cmd.Flags().StringArray("exclude", nil, "doublestar glob of directories to skip (repeatable, comma-separated)")
}

func scanOptions(cmd *cobra.Command, args []string) (engine.ScanOptions, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	hidden, err := cmd.Flags().GetBool("traverse-hidden")
	if err != nil {
		return engine.ScanOptions{}, err
	}
	exclude, err := cmd.Flags().GetStringArray("exclude")
	if err != nil {
		return engine.ScanOptions{}, err
	}
	return engine.ScanOptions{
		Root:           root,
		TraverseHidden: hidden,
		Exclude:        strutil.SplitAllCSV(exclude),
		Strict:         flagStrict,
	}, nil
}
