package gg

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/gg/internal/cliio"
	"github.com/skaphos/gg/internal/discovery"
	"github.com/skaphos/gg/internal/tableutil"
	"github.com/skaphos/gg/internal/termstyle"
)

const (
	narrowTableWidth = 100
	narrowPathLimit  = 40
)

var scanCmd = &cobra.Command{
	Use:   "scan [PATH]",
	Short: "List the repositories found under PATH",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, err := scanOptions(cmd, args)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		format = strings.ToLower(strings.TrimSpace(format))
		if format != "table" && format != "json" {
			return fmt.Errorf("unsupported format %q", format)
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		results, err := s.engine.Describe(cmd.Context(), scan, flagJobs)
		if err != nil {
			return err
		}
		s.logger.Info("scan completed", "repos", len(results))
		if format == "json" {
			if results == nil {
				results = []discovery.Result{}
			}
			return cliio.WriteJSON(cmd.OutOrStdout(), results)
		}
		return writeScanTable(cmd, results, noHeaders)
	},
}

func writeScanTable(cmd *cobra.Command, results []discovery.Result, noHeaders bool) error {
	color := !flagNoColor && isTerminalWriter(cmd.OutOrStdout())
	pathLimit := 0
	if width, ok := terminalWidth(cmd); ok && width < narrowTableWidth {
		pathLimit = narrowPathLimit
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		bare := "no"
		if r.Bare {
			bare = termstyle.Colorize(color, "yes", termstyle.Bare)
		}
		remote := r.PrimaryRemote
		if remote == "" {
			remote = termstyle.Colorize(color, "-", termstyle.NoRepo)
		} else {
			remote = termstyle.Colorize(color, remote, termstyle.Remote)
		}
		rows = append(rows, []string{
			tableutil.TruncateLeft(r.Path, pathLimit),
			remote,
			termstyle.Colorize(color, r.RepoID, termstyle.RepoID),
			bare,
		})
	}
	return cliio.Table{
		Headers:     []string{"PATH", "PRIMARY_REMOTE", "REPO", "BARE"},
		Rows:        rows,
		NoHeaders:   noHeaders,
		StripEscape: color,
	}.Write(cmd.OutOrStdout())
}

func init() {
	addScanFlags(scanCmd)
	scanCmd.Flags().StringP("format", "o", "table", "output format: table or json")
	scanCmd.Flags().Bool("no-headers", false, "omit the table header row")
	rootCmd.AddCommand(scanCmd)
}
