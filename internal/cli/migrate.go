package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/personachat/personachat/internal/history"
	"github.com/personachat/personachat/internal/history/sqlite"
	"github.com/personachat/personachat/internal/logger"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations to the history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		sqliteStore, ok := store.(*sqlite.SQLite)
		if !ok {
			return fmt.Errorf("migrations only apply to the SQLite history store")
		}

		if err := history.RunMigrations(cmd.Context(), sqliteStore.DB(), migrationsDir); err != nil {
			return err
		}

		logger.Info("Migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "migrations directory (defaults to the bundled migrations)")
	rootCmd.AddCommand(migrateCmd)
}
