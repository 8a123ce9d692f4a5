package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Show which tool integrations are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := integrations.Status()

		names := make([]string, 0, len(status))
		for name := range status {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			state := "not configured"
			if status[name] {
				state = "configured"
			}
			fmt.Printf("%-14s %s\n", name, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(integrationsCmd)
}
