// Package voting computes strip candidate tallies from live contract state.
// Vote counts are never stored; they are read from the comics contract on
// every request.
package voting

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/comicverse/txgate/internal/models"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads bounds parallel getVoteCount calls per tally
const maxConcurrentReads = 8

// VoteReader is the comics contract state a tally needs
type VoteReader interface {
	CurrentDay(ctx context.Context, comicID *big.Int) (*big.Int, error)
	VoteThreshold(ctx context.Context, day *big.Int) (*big.Int, error)
	VoteCount(ctx context.Context, stripID *big.Int) (*big.Int, error)
}

// CandidateLister lists stored strip candidates
type CandidateLister interface {
	ListEntities(ctx context.Context, filter models.EntityFilter) ([]models.Entity, error)
}

// Tallier builds candidate tallies
type Tallier struct {
	votes VoteReader
	store CandidateLister
}

// New creates a Tallier
func New(votes VoteReader, store CandidateLister) *Tallier {
	return &Tallier{votes: votes, store: store}
}

// Tally returns the current day's candidates of comicID with their vote
// counts, and the winning candidate of every earlier day. Days start at 0.
// The winner of a day is the candidate with the highest vote count; on a tie
// the newer candidate wins.
func (t *Tallier) Tally(ctx context.Context, comicID *big.Int) (*models.CandidatesResponse, error) {
	day, err := t.votes.CurrentDay(ctx, comicID)
	if err != nil {
		return nil, fmt.Errorf("failed to read current day: %w", err)
	}
	threshold, err := t.votes.VoteThreshold(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to read vote threshold: %w", err)
	}

	// newest first
	stored, err := t.store.ListEntities(ctx, models.EntityFilter{
		Kind:    models.StripCandidateCreate,
		ComicID: models.NewBigInt(comicID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	var candidates []models.Entity
	for _, c := range stored {
		if len(c.ImageURLs) > 0 && c.Day != nil && c.StripID != nil {
			candidates = append(candidates, c)
		}
	}

	counts, err := t.voteCounts(ctx, candidates)
	if err != nil {
		return nil, err
	}

	resp := &models.CandidatesResponse{
		ComicID:             models.NewBigInt(comicID),
		CurrentDay:          models.NewBigInt(day),
		VoteThreshold:       models.NewBigInt(threshold),
		VoteThresholdNative: models.FormatNative(threshold),
		Candidates:          []models.CandidateResponse{},
		Winners:             []models.CandidateResponse{},
	}

	winners := make(map[string]int)
	for i, c := range candidates {
		tallied := withVotes(c, counts[i])

		switch cmp := c.Day.Int().Cmp(day); {
		case cmp == 0:
			resp.Candidates = append(resp.Candidates, tallied)
		case cmp < 0 && c.Day.Int().Sign() >= 0:
			key := c.Day.String()
			w, seen := winners[key]
			if !seen {
				winners[key] = len(resp.Winners)
				resp.Winners = append(resp.Winners, tallied)
				continue
			}
			// strictly greater so ties keep the newer, earlier-listed candidate
			if counts[i].Cmp(resp.Winners[w].VoteCount.Int()) > 0 {
				resp.Winners[w] = tallied
			}
		}
	}

	sort.Slice(resp.Winners, func(i, j int) bool {
		return resp.Winners[i].Day.Int().Cmp(resp.Winners[j].Day.Int()) < 0
	})
	return resp, nil
}

func (t *Tallier) voteCounts(ctx context.Context, candidates []models.Entity) ([]*big.Int, error) {
	counts := make([]*big.Int, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i := range candidates {
		i := i
		g.Go(func() error {
			n, err := t.votes.VoteCount(ctx, candidates[i].StripID.Int())
			if err != nil {
				return fmt.Errorf("failed to read votes of strip %s: %w", candidates[i].StripID, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func withVotes(e models.Entity, votes *big.Int) models.CandidateResponse {
	return models.CandidateResponse{
		Entity:          e,
		VoteCount:       models.NewBigInt(votes),
		VoteCountNative: models.FormatNative(votes),
	}
}
