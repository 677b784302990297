package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/speedview-sync/log"
	"github.com/mpapenbr/speedview-sync/pkg/config"
	dbmigrate "github.com/mpapenbr/speedview-sync/pkg/db/migrate"
	"github.com/mpapenbr/speedview-sync/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "performs database migration",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (default: migrations embedded in the binary)")

	return cmd
}

func startMigration(ctx context.Context) error {
	if err := utils.WaitForDB(ctx, config.DB, config.WaitForServices); err != nil {
		return err
	}
	dbURL := prepareURLForDB(config.DB)
	version, _, err := dbmigrate.Version(dbURL)
	if err != nil {
		return fmt.Errorf("could not read schema version: %w", err)
	}
	log.Info("Current schema", log.Uint32("version", uint32(version)))

	if config.MigrationSourceURL != "" {
		log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
		err = dbmigrate.MigrateFromSource(config.MigrationSourceURL, dbURL)
	} else {
		err = dbmigrate.MigrateDB(dbURL)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if version, _, err = dbmigrate.Version(dbURL); err == nil {
		log.Info("Migration done", log.Uint32("version", uint32(version)))
	}
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
