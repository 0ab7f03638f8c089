package storage

import (
	"context"
	"errors"
	"math/big"

	"github.com/comicverse/txgate/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTransaction is returned when a transaction reference (or the
	// entity it would create) has already been consumed
	ErrDuplicateTransaction = errors.New("transaction already consumed")
)

// Repository defines the interface for all storage operations
type Repository interface {
	// Processed transactions
	FindProcessed(ctx context.Context, txHash string) (*models.ProcessedTransaction, error)

	// ApplyMutation atomically records the consumed transaction and inserts
	// the entity it authorized. Either both are stored or neither is.
	ApplyMutation(ctx context.Context, record *models.ProcessedTransaction, entity *models.Entity) error

	// Entities
	GetEntity(ctx context.Context, kind models.MutationKind, id string) (*models.Entity, error)
	GetComic(ctx context.Context, comicID *big.Int) (*models.Entity, error)
	ListEntities(ctx context.Context, filter models.EntityFilter) ([]models.Entity, error)

	// UpdateComicCover is the unguarded administrative cover edit
	UpdateComicCover(ctx context.Context, comicID *big.Int, coverImage string) (*models.Entity, error)

	// Health & Maintenance
	Ping(ctx context.Context) error
	Close() error
}
