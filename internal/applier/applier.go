package applier

import (
	"context"
	"fmt"
	"time"

	"github.com/comicverse/txgate/internal/metrics"
	"github.com/comicverse/txgate/internal/models"

	"github.com/google/uuid"
)

// Store is the write side of the repository
type Store interface {
	ApplyMutation(ctx context.Context, record *models.ProcessedTransaction, entity *models.Entity) error
}

// Applier builds and commits the entity of an authorized mutation. Fields
// covered by the chain come from the extracted fields; the claims only fill
// convenience fields the chain does not carry.
type Applier struct {
	store Store
	now   func() time.Time
	newID func() string
}

// New creates an Applier
func New(store Store) *Applier {
	return &Applier{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Apply inserts the entity together with its processed-transaction record.
// The returned error wraps the store error, so duplicates stay classifiable.
func (a *Applier) Apply(ctx context.Context, req *models.PendingMutationRequest, extracted models.ExtractedFields) (*models.Entity, error) {
	entity, err := a.Build(req, extracted)
	if err != nil {
		return nil, err
	}

	record := &models.ProcessedTransaction{
		TxHash:            entity.TxHash,
		Kind:              entity.Kind,
		ConsumedAt:        entity.CreatedAt,
		ResultingEntityID: entity.ID,
	}
	if err := a.store.ApplyMutation(ctx, record, entity); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", req.Kind, err)
	}

	metrics.EntitiesApplied.WithLabelValues(string(req.Kind)).Inc()
	return entity, nil
}

// Build maps an authorized request to the entity that will be persisted
func (a *Applier) Build(req *models.PendingMutationRequest, x models.ExtractedFields) (*models.Entity, error) {
	now := a.now()
	claimed := req.Claimed
	e := &models.Entity{
		ID:             a.newID(),
		Kind:           req.Kind,
		Name:           x.Name,
		CreatorAddress: x.Creator,
		TxHash:         req.NormalizedReference(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	switch {
	case req.Kind.IsIdentity():
		e.TokenID = x.TokenID
		e.Image = x.Image
		e.Description = firstNonEmpty(x.Description, claimed.Description)
		e.ArtisticStyle = claimed.ArtisticStyle

	case req.Kind == models.ComicCreate:
		e.ComicID = x.ComicID
		e.Image = x.Image
		e.CoverImage = x.Image
		e.Description = claimed.Description
		e.ArtisticStyle = claimed.ArtisticStyle

	case req.Kind == models.StripCandidateCreate:
		e.Name = firstNonEmpty(claimed.Name, fmt.Sprintf("Strip %s", x.StripID))
		e.StripID = x.StripID
		e.ComicID = x.ComicID
		e.Day = x.Day
		e.ImageURLs = claimed.ImageURLs
		e.Elements = claimed.Elements
		e.Status = models.CandidateStatusPending

	case req.Kind == models.PromptPurchase:
		e.Name = firstNonEmpty(claimed.Prompt, e.TxHash)
		e.Prompt = claimed.Prompt
		e.AmountPaid = x.AmountPaid
		e.RequiredPrice = x.RequiredPrice
		e.AmountPaidNative = models.FormatNative(x.AmountPaid.Int())
		e.RequiredPriceNative = models.FormatNative(x.RequiredPrice.Int())

	default:
		return nil, fmt.Errorf("no entity mapping for kind %q", req.Kind)
	}

	return e, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
