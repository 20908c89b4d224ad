package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/telemetry"

	_ "modernc.org/sqlite"
)

type StoreParams struct {
	Name string
	// if unspecified, no schema is applied
	DbSchema string
}

// SetupStore opens a private in-memory sqlite database with the given
// schema applied, the database is closed when the test ends.
func SetupStore(t testing.TB, params StoreParams) *sql.DB {
	t.Helper()

	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a different database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})

	if params.DbSchema != "" {
		_, err = db.Exec(params.DbSchema)
		if err != nil {
			t.Fatal(err)
		}
	}
	return db
}
