package sources

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"factorlang/internal/batch"
)

func setupSQLite(t *testing.T) string {
	t.Helper()
	dsn := "file:sources_test?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE bars (ts TEXT, close REAL, volume REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO bars (ts, close, volume) VALUES
		('2024-01-01', 1.0, 100),
		('2024-01-02', 2.0, 200),
		('2024-01-03', 3.0, 300)`)
	require.NoError(t, err)
	return dsn
}

func TestSQLSourceReadsBatchesInOrder(t *testing.T) {
	dsn := setupSQLite(t)
	src, err := Open(context.Background(), "sqlite", dsn, "SELECT ts, close, volume FROM bars ORDER BY ts", []string{"close", "volume"}, "ts", 2)
	require.NoError(t, err)
	defer src.Close()

	require.True(t, src.HasIndexColumn())
	require.Equal(t, map[string]bool{"close": true, "volume": true}, src.Schema())

	b1, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2}, b1.Column("close"))
	require.Equal(t, []float64{100, 200}, b1.Column("volume"))
	require.Equal(t, []string{"2024-01-01", "2024-01-02"}, b1.Index)

	b2, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, []float64{3}, b2.Column("close"))

	_, err = src.Next()
	require.ErrorIs(t, err, batch.ErrEOF)
}

func TestSQLSourceRejectsUnknownColumn(t *testing.T) {
	dsn := setupSQLite(t)
	src, err := Open(context.Background(), "sqlite", dsn, "SELECT ts, close FROM bars", []string{"close", "missing"}, "", 10)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next()
	require.Error(t, err)
}
