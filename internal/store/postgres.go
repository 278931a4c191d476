package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, abstracted so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the prospects and runs tables with the canonical columns.
// Row identity is a bigserial id, excluded from the header.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		createTablePgSQL("prospects", model.ProspectColumns),
		createTablePgSQL("runs", model.RunColumns),
		`CREATE INDEX IF NOT EXISTS idx_prospects_domain ON "prospects"("domain")`,
		`CREATE INDEX IF NOT EXISTS idx_prospects_website_url ON "prospects"("website_url")`,
	} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "postgres: migrate")
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func createTablePgSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS ` + quoteIdent(table) + ` (id BIGSERIAL PRIMARY KEY`)
	for _, col := range columns {
		b.WriteString(", " + quoteIdent(col) + ` TEXT NOT NULL DEFAULT ''`)
	}
	b.WriteString(`)`)
	return b.String()
}

func (s *PostgresStore) Header(ctx context.Context, table string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1 AND column_name <> 'id' ORDER BY ordinal_position`,
		table,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: table info %s", table)
	}
	defer rows.Close()

	var header []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan column name")
		}
		header = append(header, name)
	}
	return header, eris.Wrap(rows.Err(), "postgres: iterate columns")
}

func (s *PostgresStore) ReadAll(ctx context.Context, table string) ([]string, []Row, error) {
	header, err := s.Header(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	if len(header) == 0 {
		return nil, nil, nil
	}

	query := `SELECT id, ` + joinIdents(header) + ` FROM ` + quoteIdent(table) + ` ORDER BY id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: read %s", table)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r := Row{Cells: make([]string, len(header))}
		dest := make([]any, 0, len(header)+1)
		dest = append(dest, &r.ID)
		for i := range r.Cells {
			dest = append(dest, &r.Cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, eris.Wrapf(err, "postgres: scan %s row", table)
		}
		out = append(out, r)
	}
	return header, out, eris.Wrapf(rows.Err(), "postgres: iterate %s", table)
}

func (s *PostgresStore) Append(ctx context.Context, table string, cells []string) error {
	header, err := s.Header(ctx, table)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return eris.Errorf("postgres: table %s has no columns", table)
	}

	placeholders := make([]string, len(header))
	args := make([]any, len(header))
	for i := range header {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		if i < len(cells) {
			args[i] = cells[i]
		} else {
			args[i] = ""
		}
	}
	query := `INSERT INTO ` + quoteIdent(table) + ` (` + joinIdents(header) + `) VALUES (` + strings.Join(placeholders, ", ") + `)`

	_, err = s.pool.Exec(ctx, query, args...)
	return eris.Wrapf(err, "postgres: append to %s", table)
}

func (s *PostgresStore) Update(ctx context.Context, table string, rowID int64, cells []string) error {
	header, err := s.Header(ctx, table)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return eris.Errorf("postgres: table %s has no columns", table)
	}

	var b strings.Builder
	b.WriteString(`UPDATE ` + quoteIdent(table) + ` SET `)
	args := make([]any, 0, len(header)+1)
	for i, col := range header {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col) + ` = $` + strconv.Itoa(i+1))
		if i < len(cells) {
			args = append(args, cells[i])
		} else {
			args = append(args, "")
		}
	}
	b.WriteString(` WHERE id = $` + strconv.Itoa(len(header)+1))
	args = append(args, rowID)

	tag, err := s.pool.Exec(ctx, b.String(), args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update %s row %d", table, rowID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: %s row %d not found", table, rowID)
	}
	return nil
}
