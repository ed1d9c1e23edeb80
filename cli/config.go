package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-profile/common"
	"github.com/yllada/vpn-profile/config"
	"github.com/yllada/vpn-profile/ui"
)

func newConfigCommand(deps Deps, g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := g.configPath
			if path == "" {
				p, err := common.DefaultConfigPath()
				if err != nil {
					return common.NewError(common.ErrConfigSave, "", err)
				}
				path = p
			}

			if common.FileExists(path) && !force {
				return common.NewError(common.ErrConfigSave, path+" already exists (use --force to overwrite)", nil)
			}

			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, ui.Success("Config written."))
			fmt.Fprintln(deps.Stdout, ui.Field("Path", path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	cmd.AddCommand(initCmd)
	return cmd
}
