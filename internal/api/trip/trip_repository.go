package trip

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

const (
	tripsCollection        = "trips"
	interactionsCollection = "llm_interactions"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists trips and model interaction audit records.
type Repository interface {
	SaveTrip(ctx context.Context, record types.TripRecord) error
	GetTrip(ctx context.Context, tripID string) (*types.TripRecord, error)
	ListTrips(ctx context.Context, userEmail string) ([]types.TripRecord, error)
	DeleteTrip(ctx context.Context, tripID string) error
	DeleteTrips(ctx context.Context, tripIDs []string) error
	SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	store  DocumentStore
}

func NewRepository(store DocumentStore, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		store:  store,
	}
}

// SaveTrip upserts by record.ID.
func (r *RepositoryImpl) SaveTrip(ctx context.Context, record types.TripRecord) error {
	if err := r.store.Put(ctx, tripsCollection, record.ID, record); err != nil {
		return fmt.Errorf("failed to save trip %s: %w", record.ID, err)
	}
	return nil
}

func (r *RepositoryImpl) GetTrip(ctx context.Context, tripID string) (*types.TripRecord, error) {
	var record types.TripRecord
	if err := r.store.Get(ctx, tripsCollection, tripID, &record); err != nil {
		return nil, fmt.Errorf("failed to get trip %s: %w", tripID, err)
	}
	return &record, nil
}

// ListTrips returns the user's trips, newest first.
func (r *RepositoryImpl) ListTrips(ctx context.Context, userEmail string) ([]types.TripRecord, error) {
	records := []types.TripRecord{}
	err := r.store.Query(ctx, tripsCollection,
		Filter{Field: "userEmail", Value: userEmail},
		Order{Field: "createdAt", Descending: true},
		&records)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return records, nil
}

func (r *RepositoryImpl) DeleteTrip(ctx context.Context, tripID string) error {
	if err := r.store.Delete(ctx, tripsCollection, tripID); err != nil {
		return fmt.Errorf("failed to delete trip %s: %w", tripID, err)
	}
	return nil
}

func (r *RepositoryImpl) DeleteTrips(ctx context.Context, tripIDs []string) error {
	if err := r.store.BatchDelete(ctx, tripsCollection, tripIDs); err != nil {
		return fmt.Errorf("failed to delete %d trips: %w", len(tripIDs), err)
	}
	return nil
}

func (r *RepositoryImpl) SaveInteraction(ctx context.Context, interaction types.LlmInteraction) error {
	if err := r.store.Put(ctx, interactionsCollection, interaction.ID, interaction); err != nil {
		return fmt.Errorf("failed to save llm interaction: %w", err)
	}
	return nil
}
