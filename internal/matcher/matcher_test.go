package matcher

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/comicverse/txgate/internal/ledger"
	"github.com/comicverse/txgate/internal/ledger/ledgertest"
	"github.com/comicverse/txgate/internal/ledger/retry"
	"github.com/comicverse/txgate/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const txHash = "0x3333333333333333333333333333333333333333333333333333333333333333"

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fixture struct {
	chain   *ledgertest.Chain
	matcher *Matcher
	reader  *ledger.Reader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	chain := ledgertest.NewChain()
	contracts := ledger.NewContracts(chain.Registry, chain, retry.NewNoRetryStrategy())
	return &fixture{
		chain:   chain,
		matcher: New(chain.Registry, contracts),
		reader:  ledger.NewReader(chain, chain.Registry),
	}
}

func (f *fixture) tokenURIs(t *testing.T, contract string, metas map[int64]ledger.TokenMetadata) {
	t.Helper()
	uris := make(map[int64]string, len(metas))
	for id, meta := range metas {
		uri, err := ledger.EncodeTokenURI(meta)
		require.NoError(t, err)
		uris[id] = uri
	}
	f.chain.SetView(contract, "tokenURI", func(args []any) (any, error) {
		uri, ok := uris[args[0].(*big.Int).Int64()]
		if !ok {
			return nil, errors.New("execution reverted: nonexistent token")
		}
		return uri, nil
	})
}

func (f *fixture) authorize(t *testing.T, req *models.PendingMutationRequest, logs ...*types.Log) models.AuthorizationVerdict {
	t.Helper()
	f.chain.AddReceipt(txHash, types.ReceiptStatusSuccessful, alice, logs...)

	res, err := f.reader.Resolve(context.Background(), txHash, 1, time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	res.Sender = alice.Hex()

	v, err := f.matcher.Authorize(context.Background(), res, req)
	require.NoError(t, err)
	return v
}

func mintRequest(kind models.MutationKind, name, image string) *models.PendingMutationRequest {
	return &models.PendingMutationRequest{
		TransactionReference: txHash,
		Kind:                 kind,
		Claimed:              models.ClaimedFields{Name: name, Image: image},
	}
}

func TestAuthorize_MintConfirmed(t *testing.T) {
	f := newFixture(t)
	f.tokenURIs(t, ledger.ContractCharacters, map[int64]ledger.TokenMetadata{
		7: {Name: "hero_one", Image: "ipfs://abc", Description: "on-chain bio"},
	})

	v := f.authorize(t, mintRequest(models.CharacterMint, "hero_one", "ipfs://abc"),
		f.chain.Transfer(ledger.ContractCharacters, common.Address{}, alice, 7),
		f.chain.MetadataUpdate(ledger.ContractCharacters, 7),
	)

	require.True(t, v.Authorized, v.Detail)
	assert.Equal(t, models.ReasonNone, v.Reason)
	assert.Equal(t, "hero_one", v.Extracted.Name)
	assert.Equal(t, "ipfs://abc", v.Extracted.Image)
	assert.Equal(t, "on-chain bio", v.Extracted.Description)
	assert.True(t, v.Extracted.TokenID.Equal(big.NewInt(7)))
	assert.Equal(t, alice.Hex(), v.Extracted.Creator)
	require.NotNil(t, v.Event)
	assert.Equal(t, models.EventMetadataUpdate, v.Event.Name)
}

func TestAuthorize_MintMetadataMismatch(t *testing.T) {
	f := newFixture(t)
	f.tokenURIs(t, ledger.ContractCharacters, map[int64]ledger.TokenMetadata{
		7: {Name: "hero_two", Image: "ipfs://abc"},
	})

	v := f.authorize(t, mintRequest(models.CharacterMint, "hero_one", "ipfs://abc"),
		f.chain.MetadataUpdate(ledger.ContractCharacters, 7),
	)

	assert.False(t, v.Authorized)
	assert.Equal(t, models.ReasonFieldMismatch, v.Reason)
}

func TestAuthorize_MintComparisonIsByteExact(t *testing.T) {
	f := newFixture(t)
	f.tokenURIs(t, ledger.ContractProps, map[int64]ledger.TokenMetadata{
		1: {Name: "Sword", Image: "ipfs://abc"},
	})

	v := f.authorize(t, mintRequest(models.PropMint, "sword", "ipfs://abc"),
		f.chain.MetadataUpdate(ledger.ContractProps, 1),
	)

	assert.Equal(t, models.ReasonFieldMismatch, v.Reason)
}

func TestAuthorize_MintTriesCandidatesInOrder(t *testing.T) {
	f := newFixture(t)
	f.tokenURIs(t, ledger.ContractScenes, map[int64]ledger.TokenMetadata{
		1: {Name: "forest", Image: "ipfs://f"},
		2: {Name: "castle", Image: "ipfs://c"},
	})

	v := f.authorize(t, mintRequest(models.SceneMint, "castle", "ipfs://c"),
		f.chain.MetadataUpdate(ledger.ContractScenes, 1),
		f.chain.MetadataUpdate(ledger.ContractScenes, 2),
	)

	require.True(t, v.Authorized)
	assert.True(t, v.Extracted.TokenID.Equal(big.NewInt(2)))
}

func TestAuthorize_MalformedMetadataIsMismatch(t *testing.T) {
	f := newFixture(t)
	f.chain.Constant(ledger.ContractCharacters, "tokenURI", "ipfs://not-a-data-uri")

	v := f.authorize(t, mintRequest(models.CharacterMint, "hero_one", "ipfs://abc"),
		f.chain.MetadataUpdate(ledger.ContractCharacters, 7),
	)

	assert.Equal(t, models.ReasonFieldMismatch, v.Reason)
}

func TestAuthorize_MetadataReadFailureIsError(t *testing.T) {
	f := newFixture(t)
	f.chain.SetView(ledger.ContractCharacters, "tokenURI", func([]any) (any, error) {
		return nil, errors.New("connection refused")
	})
	f.chain.AddReceipt(txHash, types.ReceiptStatusSuccessful, alice, f.chain.MetadataUpdate(ledger.ContractCharacters, 7))

	res, err := f.reader.Resolve(context.Background(), txHash, 1, time.Millisecond)
	require.NoError(t, err)

	_, err = f.matcher.Authorize(context.Background(), res, mintRequest(models.CharacterMint, "a", "b"))
	assert.Error(t, err)
}

func TestAuthorize_EventFromOtherContractIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.tokenURIs(t, ledger.ContractProps, map[int64]ledger.TokenMetadata{7: {Name: "hero_one", Image: "ipfs://abc"}})

	// A valid prop mint submitted as a character mint
	v := f.authorize(t, mintRequest(models.CharacterMint, "hero_one", "ipfs://abc"),
		f.chain.MetadataUpdate(ledger.ContractProps, 7),
	)

	assert.Equal(t, models.ReasonEventNotFound, v.Reason)
}

func TestAuthorize_WrongEventType(t *testing.T) {
	f := newFixture(t)

	v := f.authorize(t, mintRequest(models.CharacterMint, "hero_one", "ipfs://abc"),
		f.chain.Transfer(ledger.ContractCharacters, alice, bob, 7),
	)

	assert.Equal(t, models.ReasonWrongEventType, v.Reason)
}

func TestAuthorize_RequesterMustBeSender(t *testing.T) {
	f := newFixture(t)
	f.tokenURIs(t, ledger.ContractCharacters, map[int64]ledger.TokenMetadata{7: {Name: "hero_one", Image: "ipfs://abc"}})

	req := mintRequest(models.CharacterMint, "hero_one", "ipfs://abc")
	req.RequesterAddress = bob.Hex()
	v := f.authorize(t, req, f.chain.MetadataUpdate(ledger.ContractCharacters, 7))

	assert.Equal(t, models.ReasonFieldMismatch, v.Reason)
}

func TestAuthorize_ComicCreate(t *testing.T) {
	huge, _ := new(big.Int).SetString("18446744073709551617", 10) // 2^64 + 1

	tests := []struct {
		name      string
		claimedID *big.Int
		claimName string
		requester string
		want      models.MismatchReason
	}{
		{"match", huge, "Moon Saga", "", models.ReasonNone},
		{"match with requester", huge, "Moon Saga", alice.Hex(), models.ReasonNone},
		{"id off by one beyond float precision", new(big.Int).Sub(huge, big.NewInt(1)), "Moon Saga", "", models.ReasonFieldMismatch},
		{"name differs", huge, "Sun Saga", "", models.ReasonFieldMismatch},
		{"requester differs", huge, "Moon Saga", bob.Hex(), models.ReasonFieldMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := &models.PendingMutationRequest{
				TransactionReference: txHash,
				Kind:                 models.ComicCreate,
				RequesterAddress:     tt.requester,
				Claimed: models.ClaimedFields{
					ComicID: models.NewBigInt(tt.claimedID),
					Name:    tt.claimName,
					Image:   "ipfs://cover",
				},
			}

			v := f.authorize(t, req, f.chain.ComicCreated(huge, "Moon Saga", "ipfs://cover", alice))

			assert.Equal(t, tt.want, v.Reason, v.Detail)
			if tt.want == models.ReasonNone {
				require.True(t, v.Authorized)
				assert.True(t, v.Extracted.ComicID.Equal(huge))
				assert.Equal(t, "Moon Saga", v.Extracted.Name)
				assert.Equal(t, alice.Hex(), v.Extracted.Creator)
			}
		})
	}
}

func TestAuthorize_StripCandidate(t *testing.T) {
	strip := func(comic int64) *models.PendingMutationRequest {
		return &models.PendingMutationRequest{
			TransactionReference: txHash,
			Kind:                 models.StripCandidateCreate,
			Claimed: models.ClaimedFields{
				ComicID:   models.BigIntFromInt64(comic),
				StripID:   models.BigIntFromInt64(12),
				ImageURLs: []string{"ipfs://p1"},
			},
		}
	}

	t.Run("match", func(t *testing.T) {
		f := newFixture(t)
		v := f.authorize(t, strip(4), f.chain.StripCreated(big.NewInt(12), big.NewInt(4), big.NewInt(2), alice))
		require.True(t, v.Authorized)
		assert.True(t, v.Extracted.Day.Equal(big.NewInt(2)))
		assert.True(t, v.Extracted.ComicID.Equal(big.NewInt(4)))
		assert.Equal(t, alice.Hex(), v.Extracted.Creator)
	})

	t.Run("strip of another comic", func(t *testing.T) {
		f := newFixture(t)
		v := f.authorize(t, strip(5), f.chain.StripCreated(big.NewInt(12), big.NewInt(4), big.NewInt(2), alice))
		assert.Equal(t, models.ReasonFieldMismatch, v.Reason)
	})

	t.Run("claimed id narrows the selection", func(t *testing.T) {
		f := newFixture(t)
		v := f.authorize(t, strip(4),
			f.chain.StripCreated(big.NewInt(11), big.NewInt(4), big.NewInt(2), bob),
			f.chain.StripCreated(big.NewInt(12), big.NewInt(4), big.NewInt(2), alice),
		)
		require.True(t, v.Authorized)
		assert.True(t, v.Extracted.StripID.Equal(big.NewInt(12)))
		assert.Equal(t, alice.Hex(), v.Extracted.Creator)
	})
}

func TestAuthorize_PromptPurchase(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		paid      string
		requester string
		want      models.MismatchReason
	}{
		{"insufficient payment", "0.02", "0.01", "", models.ReasonPaymentInsufficient},
		{"zero price zero payment", "0", "0", "", models.ReasonNone},
		{"exact payment", "0.02", "0.02", "", models.ReasonNone},
		{"overpayment", "0.02", "0.5", "", models.ReasonNone},
		{"payer differs", "0", "0", bob.Hex(), models.ReasonFieldMismatch},
		{"payer matches in any case", "0", "0", "0x00000000000000000000000000000000000A11CE", models.ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.chain.Constant(ledger.ContractPrompts, "getPromptPrice", ledgertest.Wei(tt.price))

			req := &models.PendingMutationRequest{
				TransactionReference: txHash,
				Kind:                 models.PromptPurchase,
				RequesterAddress:     tt.requester,
			}
			v := f.authorize(t, req, f.chain.PromptPaid(alice, ledgertest.Wei(tt.paid)))

			assert.Equal(t, tt.want, v.Reason, v.Detail)
			if tt.want == models.ReasonNone {
				require.True(t, v.Authorized)
				assert.Zero(t, ledgertest.Wei(tt.paid).Cmp(v.Extracted.AmountPaid.Int()))
				assert.Zero(t, ledgertest.Wei(tt.price).Cmp(v.Extracted.RequiredPrice.Int()))
				assert.Equal(t, alice.Hex(), v.Extracted.Creator)
			}
		})
	}
}

func TestAuthorize_PriceIsReadAtAuthorizationTime(t *testing.T) {
	f := newFixture(t)
	price := ledgertest.Wei("0.01")
	f.chain.SetView(ledger.ContractPrompts, "getPromptPrice", func([]any) (any, error) {
		return price, nil
	})
	f.chain.AddReceipt(txHash, types.ReceiptStatusSuccessful, alice, f.chain.PromptPaid(alice, ledgertest.Wei("0.01")))
	res, err := f.reader.Resolve(context.Background(), txHash, 1, time.Millisecond)
	require.NoError(t, err)
	req := &models.PendingMutationRequest{TransactionReference: txHash, Kind: models.PromptPurchase}

	// price raised between submission and verification
	price = ledgertest.Wei("0.03")
	v, err := f.matcher.Authorize(context.Background(), res, req)
	require.NoError(t, err)
	assert.Equal(t, models.ReasonPaymentInsufficient, v.Reason)
	assert.Equal(t, 1, f.chain.ViewCalls("getPromptPrice"))
}
