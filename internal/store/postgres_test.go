package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func expectHeader(mock pgxmock.PgxPoolIface, table string, cols ...string) {
	rows := pgxmock.NewRows([]string{"column_name"})
	for _, c := range cols {
		rows.AddRow(c)
	}
	mock.ExpectQuery(`SELECT column_name FROM information_schema\.columns`).
		WithArgs(table).
		WillReturnRows(rows)
}

func TestPostgresStore_Header(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	expectHeader(mock, "prospects", "company_name", "website_url", "domain")

	header, err := s.Header(context.Background(), "prospects")
	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "website_url", "domain"}, header)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReadAll(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	expectHeader(mock, "prospects", "company_name", "domain")

	mock.ExpectQuery(`SELECT id, "company_name", "domain" FROM "prospects" ORDER BY id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_name", "domain"}).
			AddRow(int64(1), "Acme", "acme.com").
			AddRow(int64(2), "", "beta.com"))

	header, rows, err := s.ReadAll(context.Background(), "prospects")
	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "domain"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, []string{"Acme", "acme.com"}, rows[0].Cells)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Append_PadsToHeaderWidth(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	expectHeader(mock, "prospects", "company_name", "domain", "status")

	mock.ExpectExec(`INSERT INTO "prospects" \("company_name", "domain", "status"\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs("Acme", "acme.com", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Append(context.Background(), "prospects", []string{"Acme", "acme.com"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Update_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	expectHeader(mock, "prospects", "company_name")

	mock.ExpectExec(`UPDATE "prospects" SET "company_name" = \$1 WHERE id = \$2`).
		WithArgs("Acme", int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Update(context.Background(), "prospects", 9, []string{"Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Append_EmptyHeader(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	expectHeader(mock, "absent")

	err := s.Append(context.Background(), "absent", []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}
