package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/inovacc/datapull/internal/frame"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	sqliteColumnsTable = "frame_columns"
	sqliteRowsTable    = "frame_rows"
)

// SQLiteCacher stores each frame in its own SQLite file. Column names live
// in frame_columns; cells live in frame_rows as c0..cN.
//
// Before the user pre-process hook runs, cells are normalized so missing
// values are stored uniformly.
type SQLiteCacher struct {
	Hooks
}

func NewSQLiteCacher(hooks Hooks) *SQLiteCacher {
	return &SQLiteCacher{Hooks: hooks}
}

func (c *SQLiteCacher) Suffix() string {
	return ".sqlite"
}

func (c *SQLiteCacher) PreProcess(f *frame.Frame) *frame.Frame {
	return c.Hooks.PreProcess(frame.Normalize(f))
}

func cellColumn(i int) string {
	return fmt.Sprintf("c%d", i)
}

func (c *SQLiteCacher) ReadCache(cacheFile string) (*frame.Frame, error) {
	if _, err := os.Stat(cacheFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheMissing, cacheFile)
		}

		return nil, err
	}

	db, err := sql.Open("sqlite", cacheFile)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", cacheFile, err)
	}
	defer func() { _ = db.Close() }()

	columns, err := readColumns(db)
	if err != nil {
		return nil, fmt.Errorf("reading cache columns %s: %w", cacheFile, err)
	}

	rows, err := readRows(db, len(columns))
	if err != nil {
		return nil, fmt.Errorf("reading cache rows %s: %w", cacheFile, err)
	}

	return frame.New(columns, rows), nil
}

func readColumns(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM ` + sqliteColumnsTable + ` ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		columns = append(columns, name)
	}

	return columns, rows.Err()
}

func readRows(db *sql.DB, width int) ([][]string, error) {
	if width == 0 {
		return nil, nil
	}

	names := make([]string, width)
	for i := range names {
		names[i] = cellColumn(i)
	}

	query := `SELECT ` + strings.Join(names, ", ") + ` FROM ` + sqliteRowsTable + ` ORDER BY idx`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out [][]string

	for rows.Next() {
		cells := make([]sql.NullString, width)
		dest := make([]any, width)

		for i := range cells {
			dest[i] = &cells[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make([]string, width)
		for i, cell := range cells {
			row[i] = cell.String
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

func (c *SQLiteCacher) WriteCache(cacheFile string, f *frame.Frame) (*frame.Frame, error) {
	f = c.PreProcess(f)

	pendingFile, err := renameio.NewPendingFile(cacheFile)
	if err != nil {
		return nil, fmt.Errorf("create pending cache file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	// SQLite writes through its own handle to the pending path.
	if err := writeDatabase(pendingFile.Name(), f); err != nil {
		return nil, err
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return nil, fmt.Errorf("atomically replace cache file: %w", err)
	}

	return f, nil
}

func writeDatabase(path string, f *frame.Frame) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening cache database: %w", err)
	}
	defer func() { _ = db.Close() }()

	db.SetMaxOpenConns(1)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	defs := []string{"idx INTEGER PRIMARY KEY"}
	names := make([]string, 0, f.Width())
	marks := make([]string, 0, f.Width()+1)
	marks = append(marks, "?")

	for i := range f.Columns {
		defs = append(defs, cellColumn(i)+" TEXT")
		names = append(names, cellColumn(i))
		marks = append(marks, "?")
	}

	stmts := []string{
		`DROP TABLE IF EXISTS ` + sqliteColumnsTable,
		`DROP TABLE IF EXISTS ` + sqliteRowsTable,
		`CREATE TABLE ` + sqliteColumnsTable + ` (position INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE ` + sqliteRowsTable + ` (` + strings.Join(defs, ", ") + `)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("preparing cache schema: %w", err)
		}
	}

	for i, name := range f.Columns {
		if _, err := tx.Exec(`INSERT INTO `+sqliteColumnsTable+` (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("writing cache columns: %w", err)
		}
	}

	if f.Width() > 0 {
		insert, err := tx.Prepare(`INSERT INTO ` + sqliteRowsTable + ` (idx, ` + strings.Join(names, ", ") +
			`) VALUES (` + strings.Join(marks, ", ") + `)`)
		if err != nil {
			return fmt.Errorf("preparing cache insert: %w", err)
		}
		defer func() { _ = insert.Close() }()

		for i, row := range f.Rows {
			args := make([]any, 0, f.Width()+1)
			args = append(args, i)

			for j := range f.Columns {
				var cell string
				if j < len(row) {
					cell = row[j]
				}

				if cell == frame.NA {
					args = append(args, nil)
					continue
				}

				args = append(args, cell)
			}

			if _, err := insert.Exec(args...); err != nil {
				return fmt.Errorf("writing cache row %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache write: %w", err)
	}

	return nil
}
