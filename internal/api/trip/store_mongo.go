package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-ai-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

var _ DocumentStore = (*MongoStore)(nil)

// MongoStore keeps one MongoDB collection per document collection, keyed by _id.
type MongoStore struct {
	logger *slog.Logger
	db     *mongo.Database
}

func NewMongoStore(db *mongo.Database, logger *slog.Logger) *MongoStore {
	return &MongoStore{
		logger: logger.With(slog.String("store", "mongo")),
		db:     db,
	}
}

func (s *MongoStore) observe(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("store", "mongo"), attribute.String("op", op))
	m := metrics.Get()
	m.StoreQueryDurationSeconds.Record(ctx, sinceSeconds(start), attrs)
	if err != nil {
		m.StoreQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (s *MongoStore) Put(ctx context.Context, collection, id string, doc any) (err error) {
	defer func(start time.Time) { s.observe(ctx, "put", start, err) }(time.Now())

	opts := options.Replace().SetUpsert(true)
	if _, err = s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts); err != nil {
		s.logger.ErrorContext(ctx, "Failed to put document", slog.String("collection", collection), slog.String("id", id), slog.Any("error", err))
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out any) (err error) {
	defer func(start time.Time) { s.observe(ctx, "get", start, err) }(time.Now())

	err = s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("document %s/%s: %w", collection, id, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, collection string, filter Filter, order Order, out any) (err error) {
	defer func(start time.Time) { s.observe(ctx, "query", start, err) }(time.Now())

	q := bson.M{}
	if filter.Field != "" {
		q[filter.Field] = filter.Value
	}
	opts := options.Find()
	if order.Field != "" {
		dir := 1
		if order.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: order.Field, Value: dir}})
	}

	cursor, err := s.db.Collection(collection).Find(ctx, q, opts)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}
	if err = cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode documents: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete", start, err) }(time.Now())

	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("document %s/%s: %w", collection, id, types.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) BatchDelete(ctx context.Context, collection string, ids []string) (err error) {
	defer func(start time.Time) { s.observe(ctx, "batch_delete", start, err) }(time.Now())

	if len(ids) == 0 {
		return nil
	}
	if _, err = s.db.Collection(collection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}
