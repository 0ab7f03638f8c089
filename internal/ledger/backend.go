package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ReceiptBackend is the subset of the ledger RPC the Reader consumes.
// TransactionReceipt must return ethereum.NotFound while the transaction is
// not yet indexed.
type ReceiptBackend interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	TransactionSender(ctx context.Context, hash common.Hash) (common.Address, error)
}

// EthBackend adapts an ethclient connection to ReceiptBackend and
// bind.ContractCaller. It is created once at start and shared by all requests.
type EthBackend struct {
	client *ethclient.Client
}

// Dial connects to the JSON-RPC endpoint at rawURL
func Dial(ctx context.Context, rawURL string) (*EthBackend, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger RPC: %w", err)
	}
	return &EthBackend{client: client}, nil
}

// TransactionReceipt returns the receipt of a mined transaction
func (b *EthBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return b.client.TransactionReceipt(ctx, hash)
}

// TransactionSender recovers the signer of the transaction
func (b *EthBackend) TransactionSender(ctx context.Context, hash common.Hash) (common.Address, error) {
	tx, _, err := b.client.TransactionByHash(ctx, hash)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover sender: %w", err)
	}
	return sender, nil
}

// Caller exposes the connection for bound contract reads
func (b *EthBackend) Caller() bind.ContractCaller {
	return b.client
}

// Ping checks the endpoint answers
func (b *EthBackend) Ping(ctx context.Context) error {
	if _, err := b.client.ChainID(ctx); err != nil {
		return fmt.Errorf("ledger RPC unavailable: %w", err)
	}
	return nil
}

// Close releases the connection
func (b *EthBackend) Close() {
	b.client.Close()
}
