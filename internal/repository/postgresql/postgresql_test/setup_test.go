package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

var (
	testDB     *database.DB
	testDBOnce sync.Once
	testDBErr  error
)

// openTestDB connects to TEST_DATABASE_URL, migrating it on first use.
// Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBOnce.Do(func() {
		if testDBErr = database.Migrate(dsn); testDBErr != nil {
			return
		}
		testDB, testDBErr = database.NewPostgreSQLDB(dsn)
	})
	require.NoError(t, testDBErr)

	truncateTables(t)
	return testDB
}

func truncateTables(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(),
		"TRUNCATE TABLE change_requests, break_intervals, time_entries, companies RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func createCompany(t *testing.T, db *database.DB, name string, defaultBreak float64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		"INSERT INTO companies (name, default_break_hours) VALUES ($1, $2) RETURNING id",
		name, defaultBreak,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
