package tcpostgres

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/speedview-sync/pkg/db/migrate"
	database "github.com/mpapenbr/speedview-sync/pkg/db/postgres"
)

// SetupTestDB starts the shared test container and returns a pool on the
// migrated database
func SetupTestDB() *pgxpool.Pool {
	ctx := context.Background()
	container, err := SetupPostgres(ctx,
		WithName("speedview-sync-test"),
		WithStartupTimeout(30*time.Second),
	)
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return migrateAndConnect(dbURL)
}

// SetupExternalTestDB uses the database referenced by TESTDB_URL
func SetupExternalTestDB() *pgxpool.Pool {
	return migrateAndConnect(os.Getenv("TESTDB_URL"))
}

func migrateAndConnect(dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}
	return database.InitWithURL(dbURL)
}

var allTables = []string{
	"import_run",
	"weather",
	"pit",
	"lap",
	"car_sample",
	"driver_entry",
	"driver",
	"team",
	"session",
	"meeting",
}

// ClearAllTables empties every table of the schema within tx
func ClearAllTables(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		"truncate table "+strings.Join(allTables, ", ")+" restart identity cascade")
	return err
}
