// SPDX-License-Identifier: MIT
package gg

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/gg/internal/cliio"
	"github.com/skaphos/gg/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default gg configuration",
	Long:  "Creates a .ggConf.yaml in the current directory, or at --config / GG_CONFIG when set.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.InitConfigPath(flagConfig, cwd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfgPath); err == nil && !force {
			ok, err := cliio.ConfirmOverwrite(cmd.ErrOrStderr(), cmd.InOrStdin(), cfgPath)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("config already exists at %q (use --force to overwrite)", cfgPath)
			}
		}

		cfg := config.DefaultConfig()
		cfg.SkipDirectories = []string{"node_modules", "vendor"}
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", cfgPath)
		return err
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing config without prompting")
	rootCmd.AddCommand(initCmd)
}
