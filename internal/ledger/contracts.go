package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/comicverse/txgate/internal/ledger/retry"
	"github.com/comicverse/txgate/internal/metrics"
	"github.com/comicverse/txgate/internal/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Contracts performs live view calls against the registered platform
// contracts. Every read goes through the retry strategy.
type Contracts struct {
	bound    map[string]*bind.BoundContract
	strategy retry.Strategy
}

// NewContracts binds every contract in registry to caller
func NewContracts(registry *Registry, caller bind.ContractCaller, strategy retry.Strategy) *Contracts {
	bound := make(map[string]*bind.BoundContract, len(registry.byName))
	for name, c := range registry.byName {
		bound[name] = bind.NewBoundContract(c.Address, c.ABI, caller, nil, nil)
	}
	return &Contracts{bound: bound, strategy: strategy}
}

// TokenURI reads tokenURI(tokenID) from the collectible contract of kind
func (c *Contracts) TokenURI(ctx context.Context, kind models.MutationKind, tokenID *big.Int) (string, error) {
	out, err := c.call(ctx, ContractNameFor(kind), "tokenURI", tokenID)
	if err != nil {
		return "", err
	}
	uri, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("tokenURI: unexpected output type %T", out[0])
	}
	return uri, nil
}

// TokenMetadata reads and decodes the metadata of a collectible token
func (c *Contracts) TokenMetadata(ctx context.Context, kind models.MutationKind, tokenID *big.Int) (TokenMetadata, error) {
	uri, err := c.TokenURI(ctx, kind, tokenID)
	if err != nil {
		return TokenMetadata{}, err
	}
	return DecodeTokenURI(uri)
}

// MintPrice returns the current mint price of the collectible contract of kind
func (c *Contracts) MintPrice(ctx context.Context, kind models.MutationKind) (*big.Int, error) {
	return c.callBig(ctx, ContractNameFor(kind), "getMintPrice")
}

// PromptPrice returns the price currently required per prompt
func (c *Contracts) PromptPrice(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, ContractPrompts, "getPromptPrice")
}

// ComicCreationFee returns the fee currently charged to create a comic
func (c *Contracts) ComicCreationFee(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, ContractComics, "getComicCreationFee")
}

// CurrentDay returns the day of comicID currently open for candidates
func (c *Contracts) CurrentDay(ctx context.Context, comicID *big.Int) (*big.Int, error) {
	return c.callBig(ctx, ContractComics, "getCurrentDay", comicID)
}

// VoteThreshold returns the amount a strip needs to win day
func (c *Contracts) VoteThreshold(ctx context.Context, day *big.Int) (*big.Int, error) {
	return c.callBig(ctx, ContractComics, "getVoteThreshold", day)
}

// VoteCount returns the amount voted for stripID so far
func (c *Contracts) VoteCount(ctx context.Context, stripID *big.Int) (*big.Int, error) {
	return c.callBig(ctx, ContractComics, "getVoteCount", stripID)
}

func (c *Contracts) callBig(ctx context.Context, contract, method string, args ...any) (*big.Int, error) {
	out, err := c.call(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}

func (c *Contracts) call(ctx context.Context, contract, method string, args ...any) ([]any, error) {
	bc, ok := c.bound[contract]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", method, ErrUnknownContract, contract)
	}

	var out []any
	err := c.strategy.Execute(ctx, func(ctx context.Context) error {
		var res []any
		if err := bc.Call(&bind.CallOpts{Context: ctx}, &res, method, args...); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		metrics.ContractReads.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, contract, err)
	}
	if len(out) == 0 {
		metrics.ContractReads.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%s on %s returned no values", method, contract)
	}

	metrics.ContractReads.WithLabelValues(method, "ok").Inc()
	return out, nil
}

// ResolveComicsAddress asks the admin contract at admin for the comics address
func ResolveComicsAddress(ctx context.Context, caller bind.ContractCaller, admin string) (string, error) {
	if !common.IsHexAddress(admin) {
		return "", fmt.Errorf("invalid admin contract address %q", admin)
	}
	parsed, err := abi.JSON(strings.NewReader(AdminABI))
	if err != nil {
		return "", fmt.Errorf("failed to parse admin ABI: %w", err)
	}

	bc := bind.NewBoundContract(common.HexToAddress(admin), parsed, caller, nil, nil)
	var out []any
	if err := bc.Call(&bind.CallOpts{Context: ctx}, &out, "getComicsAddress"); err != nil {
		return "", fmt.Errorf("failed to call getComicsAddress: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("getComicsAddress returned no values")
	}
	addr, ok := out[0].(common.Address)
	if !ok || addr == (common.Address{}) {
		return "", fmt.Errorf("getComicsAddress returned %v", out[0])
	}
	return addr.Hex(), nil
}
