package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comicverse/txgate/internal/ledger/retry"
	"github.com/comicverse/txgate/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Default receipt polling budget, roughly 30s worst case
const (
	DefaultMaxAttempts  = 10
	DefaultPollInterval = 3 * time.Second
)

// Reader resolves transaction references against the ledger. It never
// persists anything.
type Reader struct {
	backend  ReceiptBackend
	registry *Registry
}

// NewReader creates a Reader decoding logs with registry
func NewReader(backend ReceiptBackend, registry *Registry) *Reader {
	return &Reader{backend: backend, registry: registry}
}

// Resolve polls for the receipt of reference up to maxAttempts times, sleeping
// pollInterval between attempts.
//
// A missing receipt is reported as Found=false with a nil error. A reverted
// transaction is reported with Succeeded=false and no events. Only transport
// failures that outlast the polling budget are returned as errors.
func (r *Reader) Resolve(ctx context.Context, reference string, maxAttempts int, pollInterval time.Duration) (*models.TransactionResolution, error) {
	if !models.IsTransactionHash(reference) {
		return nil, fmt.Errorf("invalid transaction reference %q", reference)
	}
	hash := common.HexToHash(reference)
	res := &models.TransactionResolution{Reference: hash.Hex()}

	var receipt *types.Receipt
	poller := retry.Poller{Attempts: maxAttempts, Interval: pollInterval}
	attempts, err := poller.Poll(ctx, func(ctx context.Context, attempt int) (bool, error) {
		rcpt, err := r.backend.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			slog.Debug("Reader: receipt not yet available", "tx_hash", res.Reference, "attempt", attempt)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		receipt = rcpt
		return rcpt != nil, nil
	})
	res.Attempts = attempts

	switch {
	case errors.Is(err, retry.ErrExhausted):
		return res, nil
	case err != nil:
		return res, fmt.Errorf("failed to fetch receipt for %s: %w", res.Reference, err)
	}

	res.Found = true
	res.Finalized = true
	res.BlockHash = receipt.BlockHash.Hex()
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}

	res.Succeeded = receipt.Status == types.ReceiptStatusSuccessful
	if !res.Succeeded {
		return res, nil
	}

	res.Events = r.registry.DecodeLogs(receipt.Logs)
	slog.Debug("Reader: receipt resolved",
		"tx_hash", res.Reference,
		"block", res.BlockNumber,
		"logs", len(receipt.Logs),
		"decoded", len(res.Events))
	return res, nil
}

// Sender returns the checksummed address that signed reference
func (r *Reader) Sender(ctx context.Context, reference string) (string, error) {
	addr, err := r.backend.TransactionSender(ctx, common.HexToHash(reference))
	if err != nil {
		return "", fmt.Errorf("failed to look up sender of %s: %w", reference, err)
	}
	return addr.Hex(), nil
}
