package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRunsMigrationsAndRecordsQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Health())

	require.NoError(t, db.RecordQuery(AuditRecord{
		ObservedAt: 1000,
		Domain:     "example.com",
		QType:      1,
		Outcome:    "forwarded",
		ResolvedIP: "93.184.216.34",
		ClientIP:   "127.0.0.1",
		LatencyMS:  12,
	}))

	rows, err := db.RecentQueries(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "example.com", rows[0].Domain)
	require.Equal(t, "forwarded", rows[0].Outcome)
}

func TestRecordSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.RecordSnapshot(StatsSnapshot{
		ObservedAt:    2000,
		QueriesTotal:  42,
		CacheHits:     10,
		CacheSize:     5,
		PendingCount:  1,
		UptimeSeconds: 3600,
	}))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	db1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	// reopening an existing database must not re-run migrations that
	// already applied.
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
	require.NoError(t, db2.Health())
}
