package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		conversations, err := store.ListConversations(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list conversations: %w", err)
		}

		if len(conversations) == 0 {
			fmt.Println("No conversations yet.")
			return nil
		}

		for _, conv := range conversations {
			fmt.Printf("%-6d %-20s %s\n", conv.ID, conv.CreatedAt.Format("2006-01-02 15:04"), conv.Title)
		}
		return nil
	},
}

var showHistoryCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the messages in a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid conversation ID: %s", args[0])
		}

		messages, err := store.ListMessages(cmd.Context(), id, 0)
		if err != nil {
			return fmt.Errorf("failed to load messages: %w", err)
		}

		for _, msg := range messages {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
		}
		return nil
	},
}

var deleteHistoryCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid conversation ID: %s", args[0])
		}

		if err := store.DeleteConversation(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		fmt.Printf("Conversation %d deleted\n", id)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate chat statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}

		fmt.Printf("Conversations: %d\n", stats.TotalConversations)
		fmt.Printf("Messages:      %d\n", stats.TotalMessages)
		if len(stats.MessagesByModel) > 0 {
			fmt.Println("By model:")
			for model, count := range stats.MessagesByModel {
				fmt.Printf("  %-40s %d\n", model, count)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.AddCommand(showHistoryCmd)
	historyCmd.AddCommand(deleteHistoryCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
}
