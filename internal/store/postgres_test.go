package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
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

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS records`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO records \(id, collection, data\)`).
		WithArgs("p1", "phones", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.Create(context.Background(), "phones", map[string]any{"id": "p1", "phone_e164": "+12146093137"})
	require.NoError(t, err)
	assert.Equal(t, "p1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateMany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"records"}, []string{"id", "collection", "data"}).
		WillReturnResult(2)

	ids, err := s.CreateMany(context.Background(), "debtors", []any{
		map[string]any{"first_name": "A"},
		map[string]any{"first_name": "B"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE records SET data = data \|\| \$1::jsonb`).
		WithArgs(pgxmock.AnyArg(), "debtors", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Update(context.Background(), "debtors", "missing", map[string]any{"age": 40})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"e1","email":"a@b.com"}`)).
		AddRow([]byte(`{"id":"e2","email":"c@d.com"}`))
	mock.ExpectQuery(`SELECT data FROM records WHERE collection = \$1 AND data @> \$2::jsonb ORDER BY seq LIMIT \$3`).
		WithArgs("emails", []byte(`{"debtor_id":"d1"}`), 200).
		WillReturnRows(rows)

	out, err := s.List(context.Background(), "emails", Filter{"debtor_id": "d1"}, 200)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.JSONEq(t, `{"id":"e1","email":"a@b.com"}`, string(out[0]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM records`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.List(context.Background(), "emails", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list emails")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM records WHERE collection = \$1 AND id = \$2`).
		WithArgs("phones", "p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.Delete(context.Background(), "phones", "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM records`).
		WithArgs("debtors").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := s.Count(context.Background(), "debtors")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
