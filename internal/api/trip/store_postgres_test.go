package trip

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

func setupPostgresStoreTest(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock, discardLogger()), mock
}

func TestPostgresStore_Put(t *testing.T) {
	store, mock := setupPostgresStoreTest(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("trips", "t1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("trips", "t1", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	require.NoError(t, store.Put(ctx, "trips", "t1", types.TripRecord{ID: "t1"}))
	err := store.Put(ctx, "trips", "t1", types.TripRecord{ID: "t1"})
	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := setupPostgresStoreTest(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT doc FROM documents").
		WithArgs("trips", "t1").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).
			AddRow([]byte(`{"id":"t1","userEmail":"alice@example.com","tripData":{"location":"Paris"}}`)))
	mock.ExpectQuery("SELECT doc FROM documents").
		WithArgs("trips", "missing").
		WillReturnError(pgx.ErrNoRows)

	var record types.TripRecord
	require.NoError(t, store.Get(ctx, "trips", "t1", &record))
	assert.Equal(t, "t1", record.ID)
	assert.Equal(t, "Paris", record.TripData["location"])

	err := store.Get(ctx, "trips", "missing", &record)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Query(t *testing.T) {
	store, mock := setupPostgresStoreTest(t)

	mock.ExpectQuery(`(?s)SELECT doc FROM documents WHERE collection = \$1 AND doc ->> \$2::text = \$3\s+ORDER BY CASE WHEN .*::timestamptz END DESC NULLS LAST,\s+doc -> \$4::text DESC`).
		WithArgs("trips", "userEmail", "alice@example.com", "createdAt").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).
			AddRow([]byte(`{"id":"newest","createdAt":"2025-03-01T00:00:00Z"}`)).
			AddRow([]byte(`{"id":"new","createdAt":"2025-01-02T10:00:00.5+01:00"}`)).
			AddRow([]byte(`{"id":"old","createdAt":"2025-01-02T09:00:00Z"}`)))

	var records []types.TripRecord
	err := store.Query(context.Background(), "trips",
		Filter{Field: "userEmail", Value: "alice@example.com"},
		Order{Field: "createdAt", Descending: true},
		&records)
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"newest", "new", "old"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryEmpty(t *testing.T) {
	store, mock := setupPostgresStoreTest(t)

	mock.ExpectQuery("SELECT doc FROM documents").
		WithArgs("trips").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}))

	var records []types.TripRecord
	require.NoError(t, store.Query(context.Background(), "trips", Filter{}, Order{}, &records))
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := setupPostgresStoreTest(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("trips", "t1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM documents").
		WithArgs("trips", "t1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM documents WHERE collection = \\$1 AND id = ANY\\(\\$2\\)").
		WithArgs("trips", []string{"t2", "t3"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, store.Delete(ctx, "trips", "t1"))
	assert.ErrorIs(t, store.Delete(ctx, "trips", "t1"), types.ErrNotFound)
	require.NoError(t, store.BatchDelete(ctx, "trips", []string{"t2", "t3"}))
	require.NoError(t, store.BatchDelete(ctx, "trips", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderClause(t *testing.T) {
	desc := orderClause(2, true)
	assert.Contains(t, desc, "(doc ->> $2::text)::timestamptz END DESC NULLS LAST")
	assert.Contains(t, desc, "doc -> $2::text DESC")

	asc := orderClause(4, false)
	assert.Contains(t, asc, "(doc ->> $4::text)::timestamptz END ASC NULLS LAST")
	assert.NotContains(t, asc, "DESC")
}
