package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospector-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Migrate creates the prospects and runs tables with the canonical columns.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		createTableSQL("prospects", model.ProspectColumns),
		createTableSQL("runs", model.RunColumns),
		`CREATE INDEX IF NOT EXISTS idx_prospects_domain ON "prospects"("domain")`,
		`CREATE INDEX IF NOT EXISTS idx_prospects_website_url ON "prospects"("website_url")`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrap(err, "sqlite: migrate")
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createTableSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS ` + quoteIdent(table) + ` (`)
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col) + ` TEXT NOT NULL DEFAULT ''`)
	}
	b.WriteString(`)`)
	return b.String()
}

// quoteIdent quotes a SQL identifier. Table and column names come from config
// and the canonical schema, never from row data.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLiteStore) Header(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: table info %s", table)
	}
	defer func() { _ = rows.Close() }()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan column name")
		}
		header = append(header, name)
	}
	return header, eris.Wrap(rows.Err(), "sqlite: iterate columns")
}

func (s *SQLiteStore) ReadAll(ctx context.Context, table string) ([]string, []Row, error) {
	header, err := s.Header(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	if len(header) == 0 {
		return nil, nil, nil
	}

	query := `SELECT rowid, ` + joinIdents(header) + ` FROM ` + quoteIdent(table) + ` ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: read %s", table)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		r := Row{Cells: make([]string, len(header))}
		dest := make([]any, 0, len(header)+1)
		dest = append(dest, &r.ID)
		for i := range r.Cells {
			dest = append(dest, &r.Cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, eris.Wrapf(err, "sqlite: scan %s row", table)
		}
		out = append(out, r)
	}
	return header, out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", table)
}

func (s *SQLiteStore) Append(ctx context.Context, table string, cells []string) error {
	header, err := s.Header(ctx, table)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return eris.Errorf("sqlite: table %s has no columns", table)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	query := `INSERT INTO ` + quoteIdent(table) + ` (` + joinIdents(header) + `) VALUES (` + placeholders + `)`

	args := make([]any, len(header))
	for i := range header {
		if i < len(cells) {
			args[i] = cells[i]
		} else {
			args[i] = ""
		}
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return eris.Wrapf(err, "sqlite: append to %s", table)
}

func (s *SQLiteStore) Update(ctx context.Context, table string, rowID int64, cells []string) error {
	header, err := s.Header(ctx, table)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return eris.Errorf("sqlite: table %s has no columns", table)
	}

	var b strings.Builder
	b.WriteString(`UPDATE ` + quoteIdent(table) + ` SET `)
	args := make([]any, 0, len(header)+1)
	for i, col := range header {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col) + ` = ?`)
		if i < len(cells) {
			args = append(args, cells[i])
		} else {
			args = append(args, "")
		}
	}
	b.WriteString(` WHERE rowid = ?`)
	args = append(args, rowID)

	res, err := s.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update %s row %d", table, rowID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s row %d not found", table, rowID)
	}
	return nil
}

func joinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
