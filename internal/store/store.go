// Package store provides the registry read/write contract and its SQLite,
// Postgres, and in-memory backends. The risk engine only reads; imports and
// seeding write.
package store

import (
	"context"
	"errors"

	"github.com/agriguard/subsidy-cli/internal/model"
)

// ErrNotFound marks expected absence: the identifier simply has no registry
// row. Callers must branch on it with errors.Is; it is an outcome, not a
// failure.
var ErrNotFound = errors.New("store: not found")

// Pair identifies one dealer-farmer relationship history.
type Pair struct {
	DealerID string `json:"dealer_id"`
	FarmerID string `json:"farmer_id"`
}

// Store is the registry contract consumed by the risk engine and the CLI.
//
// Lookups match on exact identifier equality after trimming. FindRelationship
// returns the most recent row for the pair: latest recorded_at, ties broken by
// insertion order. CountRelationships counts the full history for the pair.
type Store interface {
	FindFarmer(ctx context.Context, farmerID string) (*model.Farmer, error)
	FindDealer(ctx context.Context, dealerID string) (*model.Dealer, error)
	FindRelationship(ctx context.Context, dealerID, farmerID string) (*model.Relationship, error)
	CountRelationships(ctx context.Context, dealerID, farmerID string) (int, error)

	UpsertFarmer(ctx context.Context, f model.Farmer) error
	UpsertDealer(ctx context.Context, d model.Dealer) error
	AddRelationship(ctx context.Context, r model.Relationship) error
	ListRelationshipPairs(ctx context.Context) ([]Pair, error)

	Migrate(ctx context.Context) error
	Close() error
}
