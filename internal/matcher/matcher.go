package matcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/comicverse/txgate/internal/ledger"
	"github.com/comicverse/txgate/internal/models"
)

// ContractReader is the live contract state the matcher compares against
type ContractReader interface {
	TokenMetadata(ctx context.Context, kind models.MutationKind, tokenID *big.Int) (ledger.TokenMetadata, error)
	PromptPrice(ctx context.Context) (*big.Int, error)
}

// Matcher decides whether a resolved transaction authorizes a request.
// Business mismatches are verdicts; only contract read failures are errors.
type Matcher struct {
	registry  *ledger.Registry
	contracts ContractReader
}

// New creates a Matcher
func New(registry *ledger.Registry, contracts ContractReader) *Matcher {
	return &Matcher{registry: registry, contracts: contracts}
}

// Authorize checks the decoded events of a successful transaction against
// the request. Only events emitted by the contract registered for the kind
// are considered.
func (m *Matcher) Authorize(ctx context.Context, res *models.TransactionResolution, req *models.PendingMutationRequest) (models.AuthorizationVerdict, error) {
	contract, err := m.registry.ForKind(req.Kind)
	if err != nil {
		return models.AuthorizationVerdict{}, err
	}

	own := res.EventsFrom(contract.Address.Hex())
	if len(own) == 0 {
		return models.Reject(models.ReasonEventNotFound,
			fmt.Sprintf("transaction emitted no event from the %s contract", contract.Name)), nil
	}

	expected := ledger.ExpectedEvent(req.Kind)
	var candidates []models.DecodedEvent
	for _, ev := range own {
		if ev.Name == expected && ev.Payload != nil {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		return models.Reject(models.ReasonWrongEventType,
			fmt.Sprintf("expected %s from the %s contract, got %s", expected, contract.Name, own[0].Name)), nil
	}

	switch {
	case req.Kind.IsIdentity():
		return m.authorizeIdentity(ctx, res, req, candidates)
	case req.Kind == models.ComicCreate:
		return authorizeComic(req, candidates), nil
	case req.Kind == models.StripCandidateCreate:
		return authorizeStrip(req, candidates), nil
	case req.Kind == models.PromptPurchase:
		return m.authorizePayment(ctx, req, candidates)
	}
	return models.AuthorizationVerdict{}, fmt.Errorf("no matching rule for kind %s", req.Kind)
}

// authorizeIdentity compares the minted token's metadata, read live through
// tokenURI, with the claimed name and image. Candidates are tried in order.
func (m *Matcher) authorizeIdentity(ctx context.Context, res *models.TransactionResolution, req *models.PendingMutationRequest, candidates []models.DecodedEvent) (models.AuthorizationVerdict, error) {
	var first *models.AuthorizationVerdict
	reject := func(v models.AuthorizationVerdict) {
		if first == nil {
			first = &v
		}
	}

	for i := range candidates {
		ev := &candidates[i]
		p := ev.Payload.(models.MetadataUpdatePayload)

		meta, err := m.contracts.TokenMetadata(ctx, req.Kind, p.TokenID.Int())
		if errors.Is(err, ledger.ErrMalformedMetadata) {
			reject(models.Reject(models.ReasonFieldMismatch,
				fmt.Sprintf("token %s: %v", p.TokenID, err)))
			continue
		}
		if err != nil {
			return models.AuthorizationVerdict{}, fmt.Errorf("failed to read metadata of token %s: %w", p.TokenID, err)
		}

		if meta.Name != req.Claimed.Name || meta.Image != req.Claimed.Image {
			reject(models.Reject(models.ReasonFieldMismatch,
				fmt.Sprintf("token %s metadata does not match the claimed name and image", p.TokenID)))
			continue
		}
		if v, ok := checkRequester(req.RequesterAddress, res.Sender); !ok {
			reject(v)
			continue
		}

		return models.Authorize(ev, models.ExtractedFields{
			TokenID:     p.TokenID,
			Name:        meta.Name,
			Image:       meta.Image,
			Description: meta.Description,
			Creator:     res.Sender,
		}), nil
	}
	return *first, nil
}

func authorizeComic(req *models.PendingMutationRequest, candidates []models.DecodedEvent) models.AuthorizationVerdict {
	claimed := req.Claimed.ComicID.Int()

	for i := range candidates {
		ev := &candidates[i]
		p := ev.Payload.(models.ComicCreatedPayload)
		if !p.ComicID.Equal(claimed) {
			continue
		}

		if req.Claimed.Name != "" && p.Name != req.Claimed.Name {
			return models.Reject(models.ReasonFieldMismatch, fmt.Sprintf("comic %s name differs from the claim", p.ComicID))
		}
		if req.Claimed.Image != "" && p.Image != req.Claimed.Image {
			return models.Reject(models.ReasonFieldMismatch, fmt.Sprintf("comic %s image differs from the claim", p.ComicID))
		}
		if v, ok := checkRequester(req.RequesterAddress, p.Creator); !ok {
			return v
		}

		return models.Authorize(ev, models.ExtractedFields{
			ComicID: p.ComicID,
			Name:    p.Name,
			Image:   p.Image,
			Creator: p.Creator,
		})
	}
	return models.Reject(models.ReasonFieldMismatch,
		fmt.Sprintf("no ComicCreated event for comic %s", req.Claimed.ComicID))
}

func authorizeStrip(req *models.PendingMutationRequest, candidates []models.DecodedEvent) models.AuthorizationVerdict {
	claimedStrip := req.Claimed.StripID.Int()
	claimedComic := req.Claimed.ComicID.Int()

	for i := range candidates {
		ev := &candidates[i]
		p := ev.Payload.(models.StripCreatedPayload)
		if !p.StripID.Equal(claimedStrip) {
			continue
		}

		if !p.ComicID.Equal(claimedComic) {
			return models.Reject(models.ReasonFieldMismatch,
				fmt.Sprintf("strip %s belongs to comic %s, not %s", p.StripID, p.ComicID, req.Claimed.ComicID))
		}
		if v, ok := checkRequester(req.RequesterAddress, p.Creator); !ok {
			return v
		}

		return models.Authorize(ev, models.ExtractedFields{
			StripID: p.StripID,
			ComicID: p.ComicID,
			Day:     p.Day,
			Creator: p.Creator,
		})
	}
	return models.Reject(models.ReasonFieldMismatch,
		fmt.Sprintf("no StripCreated event for strip %s", req.Claimed.StripID))
}

// authorizePayment requires the paid amount to cover the price currently set
// on the prompts contract
func (m *Matcher) authorizePayment(ctx context.Context, req *models.PendingMutationRequest, candidates []models.DecodedEvent) (models.AuthorizationVerdict, error) {
	price, err := m.contracts.PromptPrice(ctx)
	if err != nil {
		return models.AuthorizationVerdict{}, fmt.Errorf("failed to read prompt price: %w", err)
	}

	var first *models.AuthorizationVerdict
	for i := range candidates {
		ev := &candidates[i]
		p := ev.Payload.(models.PromptPaidPayload)

		var v models.AuthorizationVerdict
		if rv, ok := checkRequester(req.RequesterAddress, p.Payer); !ok {
			v = rv
		} else if p.Amount.Int().Cmp(price) < 0 {
			v = models.Reject(models.ReasonPaymentInsufficient,
				fmt.Sprintf("paid %s, price is %s", models.FormatNative(p.Amount.Int()), models.FormatNative(price)))
		} else {
			return models.Authorize(ev, models.ExtractedFields{
				Creator:       p.Payer,
				AmountPaid:    p.Amount,
				RequiredPrice: models.NewBigInt(price),
			}), nil
		}
		if first == nil {
			first = &v
		}
	}
	return *first, nil
}

// checkRequester verifies an optional client-asserted address against the
// on-chain actor
func checkRequester(requester, onChain string) (models.AuthorizationVerdict, bool) {
	if requester == "" || models.EqualAddress(requester, onChain) {
		return models.AuthorizationVerdict{}, true
	}
	return models.Reject(models.ReasonFieldMismatch,
		fmt.Sprintf("requester %s is not the on-chain actor %s", requester, onChain)), false
}
