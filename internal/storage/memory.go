package storage

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comicverse/txgate/internal/models"
)

// MemoryRepository is an in-process Repository. Its uniqueness checks on the
// transaction reference run under one lock, mirroring the PostgreSQL
// constraints.
type MemoryRepository struct {
	mu        sync.RWMutex
	processed map[string]models.ProcessedTransaction
	entities  map[models.MutationKind][]models.Entity
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		processed: make(map[string]models.ProcessedTransaction),
		entities:  make(map[models.MutationKind][]models.Entity),
	}
}

func (r *MemoryRepository) FindProcessed(ctx context.Context, txHash string) (*models.ProcessedTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.processed[strings.ToLower(txHash)]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) ApplyMutation(ctx context.Context, record *models.ProcessedTransaction, entity *models.Entity) error {
	if _, err := tableFor(entity.Kind); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(record.TxHash)
	if _, ok := r.processed[key]; ok {
		return ErrDuplicateTransaction
	}
	for _, e := range r.entities[entity.Kind] {
		if strings.EqualFold(e.TxHash, entity.TxHash) {
			return ErrDuplicateTransaction
		}
		if entity.Kind == models.ComicCreate && e.ComicID != nil && entity.ComicID != nil &&
			e.ComicID.Int().Cmp(entity.ComicID.Int()) == 0 {
			return ErrDuplicateTransaction
		}
	}

	rec := *record
	rec.TxHash = key
	r.processed[key] = rec

	stored := *entity
	stored.TxHash = strings.ToLower(entity.TxHash)
	r.entities[entity.Kind] = append(r.entities[entity.Kind], stored)
	return nil
}

func (r *MemoryRepository) GetEntity(ctx context.Context, kind models.MutationKind, id string) (*models.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entities[kind] {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) GetComic(ctx context.Context, comicID *big.Int) (*models.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.comicIndex(comicID); i >= 0 {
		e := r.entities[models.ComicCreate][i]
		return &e, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListEntities(ctx context.Context, filter models.EntityFilter) ([]models.Entity, error) {
	if _, err := tableFor(filter.Kind); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	stored := r.entities[filter.Kind]
	var out []models.Entity
	for i := len(stored) - 1; i >= 0; i-- {
		e := stored[i]
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) {
			continue
		}
		if filter.ComicID != nil && !e.ComicID.Equal(filter.ComicID.Int()) {
			continue
		}
		if filter.Day != nil && !e.Day.Equal(filter.Day.Int()) {
			continue
		}
		out = append(out, e)
	}

	// newest first; later inserts win ties
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateComicCover(ctx context.Context, comicID *big.Int, coverImage string) (*models.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.comicIndex(comicID)
	if i < 0 {
		return nil, ErrNotFound
	}
	comics := r.entities[models.ComicCreate]
	comics[i].CoverImage = coverImage
	comics[i].UpdatedAt = time.Now().UTC()
	e := comics[i]
	return &e, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) Close() error {
	return nil
}

// Count returns the number of stored entities of kind and processed records
func (r *MemoryRepository) Count(kind models.MutationKind) (entities, records int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities[kind]), len(r.processed)
}

func (r *MemoryRepository) comicIndex(comicID *big.Int) int {
	for i, e := range r.entities[models.ComicCreate] {
		if e.ComicID.Equal(comicID) {
			return i
		}
	}
	return -1
}
