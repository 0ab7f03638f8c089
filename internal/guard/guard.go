package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/comicverse/txgate/internal/models"
	"github.com/comicverse/txgate/internal/storage"
)

// Store is the lookup side of the processed-transaction log
type Store interface {
	FindProcessed(ctx context.Context, txHash string) (*models.ProcessedTransaction, error)
}

// Reservation is the result of CheckAndReserve
type Reservation struct {
	AlreadyUsed bool
	Existing    *models.ProcessedTransaction
}

// Guard ensures a transaction reference authorizes at most one mutation.
//
// CheckAndReserve is a fast look-ahead only. The binding check is the
// uniqueness constraint hit by the applier's insert; callers must treat an
// IsDuplicate error from the applier exactly like AlreadyUsed.
type Guard struct {
	store Store
}

// New creates a Guard
func New(store Store) *Guard {
	return &Guard{store: store}
}

// CheckAndReserve reports whether txHash was already consumed. References are
// unique across all kinds.
func (g *Guard) CheckAndReserve(ctx context.Context, txHash string, kind models.MutationKind) (Reservation, error) {
	rec, err := g.store.FindProcessed(ctx, txHash)
	if errors.Is(err, storage.ErrNotFound) {
		return Reservation{}, nil
	}
	if err != nil {
		return Reservation{}, fmt.Errorf("failed to check transaction %s: %w", txHash, err)
	}
	return Reservation{AlreadyUsed: true, Existing: rec}, nil
}

// IsDuplicate classifies a storage error as a lost race on the reference
func IsDuplicate(err error) bool {
	return errors.Is(err, storage.ErrDuplicateTransaction) || storage.IsUniqueViolation(err)
}
