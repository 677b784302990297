package testdb

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/mpapenbr/speedview-sync/testsupport/tcpostgres"
)

// InitTestDB returns a pool on an empty, migrated database.
// TESTDB_URL selects an external database instead of the test container.
func InitTestDB() *pgxpool.Pool {
	var pool *pgxpool.Pool
	if url := os.Getenv("TESTDB_URL"); url != "" {
		log.Printf("using external test database")
		pool = tcpg.SetupExternalTestDB()
	} else {
		pool = tcpg.SetupTestDB()
	}
	ctx := context.Background()
	if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return tcpg.ClearAllTables(ctx, tx)
	}); err != nil {
		log.Fatalf("initTestDB: %v\n", err)
	}
	return pool
}
