// Package sources provides concrete batch.Source implementations. SQLSource
// reads ordered rows out of any database/sql driver; the four drivers
// imported below are registered for side effect purely so callers can name a
// driver by string without importing it themselves (spec.md §1 leaves the
// concrete reader out of scope for the core engine, but a replay still needs
// somewhere to get rows from).
package sources

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cast"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"factorlang/internal/batch"
)

// SQLSource reads a fixed query's result set in fixed-size batches, column
// by column, through any registered database/sql driver.
type SQLSource struct {
	db        *sql.DB
	ctx       context.Context
	query     string
	columns   []string
	indexCol  string
	batchSize int

	rows     *sql.Rows
	colNames []string
	started  bool
	nextRow  int
	exhausted bool
}

// Open opens driverName (one of "mysql", "postgres", "sqlserver", "sqlite")
// against dsn and prepares a SQLSource over query. columns names the float64
// columns the caller expects back; indexCol, if non-empty, names an
// additional pass-through column carried as an opaque string index.
func Open(ctx context.Context, driverName, dsn, query string, columns []string, indexCol string, batchSize int) (*SQLSource, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sources: opening %s: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sources: pinging %s: %w", driverName, err)
	}
	return &SQLSource{
		db: db, ctx: ctx, query: query,
		columns: append([]string(nil), columns...), indexCol: indexCol,
		batchSize: batchSize,
	}, nil
}

func (s *SQLSource) ensureStarted() error {
	if s.started {
		return nil
	}
	rows, err := s.db.QueryContext(s.ctx, s.query)
	if err != nil {
		return fmt.Errorf("sources: running query: %w", err)
	}
	colNames, err := rows.Columns()
	if err != nil {
		rows.Close()
		return fmt.Errorf("sources: reading result columns: %w", err)
	}
	s.rows = rows
	s.colNames = colNames
	s.started = true
	return nil
}

// Schema reports the requested float64 columns as present; SQLSource trusts
// its caller to have named columns that actually exist in the query (a bad
// name surfaces as an error from the first Next that reads a row, not here).
func (s *SQLSource) Schema() map[string]bool {
	out := make(map[string]bool, len(s.columns))
	for _, c := range s.columns {
		out[c] = true
	}
	return out
}

func (s *SQLSource) HasIndexColumn() bool { return s.indexCol != "" }

// Rows is unknown ahead of time for a streamed SQL result set.
func (s *SQLSource) Rows() (int, bool) { return 0, false }

func (s *SQLSource) Next() (*batch.Batch, error) {
	if s.exhausted {
		return nil, batch.ErrEOF
	}
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	cols := make(map[string][]float64, len(s.columns))
	for _, c := range s.columns {
		cols[c] = make([]float64, 0, s.batchSize)
	}
	var idx []string
	if s.indexCol != "" {
		idx = make([]string, 0, s.batchSize)
	}

	scanDest := make([]interface{}, len(s.colNames))
	scanBuf := make([]sql.RawBytes, len(s.colNames))
	for i := range scanBuf {
		scanDest[i] = &scanBuf[i]
	}
	colPos := make(map[string]int, len(s.colNames))
	for i, name := range s.colNames {
		colPos[name] = i
	}

	start := s.nextRow
	count := 0
	for count < s.batchSize {
		if !s.rows.Next() {
			if err := s.rows.Err(); err != nil {
				return nil, fmt.Errorf("sources: reading rows: %w", err)
			}
			s.exhausted = true
			break
		}
		if err := s.rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("sources: scanning row: %w", err)
		}
		for _, c := range s.columns {
			pos, ok := colPos[c]
			if !ok {
				return nil, fmt.Errorf("sources: column %q not present in query result", c)
			}
			v, err := cast.ToFloat64E(string(scanBuf[pos]))
			if err != nil {
				return nil, fmt.Errorf("sources: column %q row %d: %w", c, s.nextRow, err)
			}
			cols[c] = append(cols[c], v)
		}
		if s.indexCol != "" {
			pos, ok := colPos[s.indexCol]
			if !ok {
				return nil, fmt.Errorf("sources: index column %q not present in query result", s.indexCol)
			}
			idx = append(idx, string(scanBuf[pos]))
		}
		s.nextRow++
		count++
	}
	if count == 0 {
		s.exhausted = true
		if err := s.Close(); err != nil {
			return nil, err
		}
		return nil, batch.ErrEOF
	}
	return &batch.Batch{Columns: cols, Index: idx, Start: start}, nil
}

func (s *SQLSource) Close() error {
	if s.rows != nil {
		s.rows.Close()
	}
	return s.db.Close()
}
