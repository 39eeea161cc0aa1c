package trip

import (
	"context"
	"time"
)

// Filter matches documents whose top-level Field equals Value. The zero
// Filter matches every document of the collection.
type Filter struct {
	Field string
	Value any
}

// Order sorts query results by a top-level field.
type Order struct {
	Field      string
	Descending bool
}

// DocumentStore is keyed document storage. Put is an upsert, so writing the
// same id twice leaves a single document.
type DocumentStore interface {
	Put(ctx context.Context, collection, id string, doc any) error
	// Get decodes the document into out. It returns types.ErrNotFound when absent.
	Get(ctx context.Context, collection, id string, out any) error
	// Query decodes the matching documents into out, a pointer to a slice.
	Query(ctx context.Context, collection string, filter Filter, order Order, out any) error
	Delete(ctx context.Context, collection, id string) error
	BatchDelete(ctx context.Context, collection string, ids []string) error
}

func sinceSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}
