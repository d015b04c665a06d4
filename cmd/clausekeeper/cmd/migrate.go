package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/clausekeeper/internal/core/config"
	"github.com/solatis/clausekeeper/internal/core/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Inspect or apply the ruleset cache's schema revisions",
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the ruleset cache's schema revisions and whether each has been applied",
	RunE:  runMigrateStatus,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply any pending ruleset cache schema revisions",
	RunE:  runMigrateUp,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateUpCmd)
}

func openCacheDB() (*sqlx.DB, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	url := dbURL
	if url == "" {
		url = cfg.DBURL
	}
	if url == "" {
		return nil, fmt.Errorf("--db-url (or CK_DB_URL) required: the ruleset cache has no database configured")
	}
	return db.Open(url)
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	database, err := openCacheDB()
	if err != nil {
		return err
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to read schema revision status: %w", err)
	}

	for _, s := range statuses {
		if s.Applied {
			fmt.Printf("%s  applied     %s  %dms\n", s.ID, s.AppliedAt.Format("2006-01-02T15:04:05Z"), s.ExecutionMs)
		} else {
			fmt.Printf("%s  pending\n", s.ID)
		}
	}
	return nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	database, err := openCacheDB()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to apply schema revisions: %w", err)
	}
	fmt.Println("ruleset cache schema is up to date")
	return nil
}
