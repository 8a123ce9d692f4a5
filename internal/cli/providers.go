package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured AI providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := registry.Names()
		if len(names) == 0 {
			fmt.Println("No providers configured. Set an API key such as GROQ_API_KEY to register one.")
			return nil
		}

		for _, name := range names {
			marker := " "
			if name == cfg.DefaultProvider {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models <provider>",
	Short: "List models available from a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, ok := registry.Get(args[0])
		if !ok {
			return fmt.Errorf("provider not configured: %s", args[0])
		}

		models, err := provider.ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}

		for _, m := range models {
			fmt.Println(m.ID)
		}
		return nil
	},
}

func init() {
	providersCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(providersCmd)
}
