package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List loaded plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, info := range manager.List() {
			state := "disabled"
			if info.Enabled {
				state = "enabled"
			}
			kind := "builtin"
			if info.External {
				kind = "external"
			}
			fmt.Printf("%-16s %-8s %-8s %s\n", info.ID, state, kind, info.Description)
		}
		return nil
	},
}

var enablePluginCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := manager.SetEnabled(args[0], true); err != nil {
			return err
		}
		fmt.Printf("Plugin %s enabled\n", args[0])
		return nil
	},
}

var disablePluginCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := manager.SetEnabled(args[0], false); err != nil {
			return err
		}
		fmt.Printf("Plugin %s disabled\n", args[0])
		return nil
	},
}

func init() {
	pluginsCmd.AddCommand(enablePluginCmd)
	pluginsCmd.AddCommand(disablePluginCmd)
	rootCmd.AddCommand(pluginsCmd)
}
