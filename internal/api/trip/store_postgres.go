package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-ai-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

var _ DocumentStore = (*PostgresStore)(nil)

// PgxIface is the subset of *pgxpool.Pool the store needs.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps documents as jsonb rows of the documents table.
type PostgresStore struct {
	logger *slog.Logger
	pgpool PgxIface
}

func NewPostgresStore(pgpool PgxIface, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		logger: logger.With(slog.String("store", "postgres")),
		pgpool: pgpool,
	}
}

func (s *PostgresStore) observe(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("store", "postgres"), attribute.String("op", op))
	m := metrics.Get()
	m.StoreQueryDurationSeconds.Record(ctx, sinceSeconds(start), attrs)
	if err != nil {
		m.StoreQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc any) (err error) {
	defer func(start time.Time) { s.observe(ctx, "put", start, err) }(time.Now())

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	query := `
        INSERT INTO documents (collection, id, doc)
        VALUES ($1, $2, $3)
        ON CONFLICT (collection, id)
        DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
    `
	if _, err = s.pgpool.Exec(ctx, query, collection, id, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to put document", slog.String("collection", collection), slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string, out any) (err error) {
	defer func(start time.Time) { s.observe(ctx, "get", start, err) }(time.Now())

	query := `SELECT doc FROM documents WHERE collection = $1 AND id = $2`
	var payload []byte
	if err = s.pgpool.QueryRow(ctx, query, collection, id).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("document %s/%s: %w", collection, id, types.ErrNotFound)
		}
		return fmt.Errorf("failed to get document: %w", err)
	}
	if err = json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filter Filter, order Order, out any) (err error) {
	defer func(start time.Time) { s.observe(ctx, "query", start, err) }(time.Now())

	query := `SELECT doc FROM documents WHERE collection = $1`
	args := []any{collection}
	if filter.Field != "" {
		query += ` AND doc ->> $2::text = $3`
		args = append(args, filter.Field, fmt.Sprint(filter.Value))
	}
	if order.Field != "" {
		args = append(args, order.Field)
		query += orderClause(len(args), order.Descending)
	}

	rows, err := s.pgpool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var payload []byte
		if err = rows.Scan(&payload); err != nil {
			return fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, json.RawMessage(payload))
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate documents: %w", err)
	}

	joined, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}
	if err = json.Unmarshal(joined, out); err != nil {
		return fmt.Errorf("failed to decode documents: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete", start, err) }(time.Now())

	tag, err := s.pgpool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s/%s: %w", collection, id, types.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) BatchDelete(ctx context.Context, collection string, ids []string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "batch_delete", start, err) }(time.Now())

	if len(ids) == 0 {
		return nil
	}
	if _, err = s.pgpool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = ANY($2)`, collection, ids); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// orderClause sorts by the top-level field bound to placeholder n. RFC 3339
// strings compare as instants, other values by jsonb ordering.
func orderClause(n int, descending bool) string {
	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	return fmt.Sprintf(`
        ORDER BY CASE WHEN (doc ->> $%[1]d::text) ~ '^\d{4}-\d{2}-\d{2}T'
                      THEN (doc ->> $%[1]d::text)::timestamptz END %[2]s NULLS LAST,
                 doc -> $%[1]d::text %[2]s`, n, dir)
}
