package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/comicverse/txgate/internal/ledger"
	"github.com/comicverse/txgate/internal/ledger/ledgertest"
	"github.com/comicverse/txgate/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	txA = "0x1111111111111111111111111111111111111111111111111111111111111111"
	txB = "0x2222222222222222222222222222222222222222222222222222222222222222"
)

var creator = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func TestReader_ResolveFound(t *testing.T) {
	chain := ledgertest.NewChain()
	chain.AddReceipt(txA, types.ReceiptStatusSuccessful, creator,
		chain.Transfer("characters", common.Address{}, creator, 7),
		chain.MetadataUpdate("characters", 7),
	)
	reader := ledger.NewReader(chain, chain.Registry)

	res, err := reader.Resolve(context.Background(), txA, 3, time.Millisecond)
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.True(t, res.Finalized)
	assert.True(t, res.Succeeded)
	assert.Equal(t, 1, res.Attempts)
	require.Len(t, res.Events, 2)
	assert.Equal(t, models.EventTransfer, res.Events[0].Name)
	assert.Equal(t, models.EventMetadataUpdate, res.Events[1].Name)
	assert.Equal(t, ledger.ContractCharacters, res.Events[1].ContractName)

	payload, ok := res.Events[1].Payload.(models.MetadataUpdatePayload)
	require.True(t, ok)
	assert.True(t, payload.TokenID.Equal(big.NewInt(7)))
}

func TestReader_ResolveAfterDelay(t *testing.T) {
	chain := ledgertest.NewChain()
	chain.AddReceipt(txA, types.ReceiptStatusSuccessful, creator, chain.PromptPaid(creator, big.NewInt(1)))
	chain.HideReceipt(txA, 2)
	reader := ledger.NewReader(chain, chain.Registry)

	res, err := reader.Resolve(context.Background(), txA, 5, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, chain.Lookups(txA))
}

func TestReader_ResolveNotFoundWithinBudget(t *testing.T) {
	chain := ledgertest.NewChain()
	reader := ledger.NewReader(chain, chain.Registry)

	const attempts = 10
	const interval = 5 * time.Millisecond

	start := time.Now()
	res, err := reader.Resolve(context.Background(), txA, attempts, interval)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.False(t, res.Finalized)
	assert.Empty(t, res.Events)
	assert.Equal(t, attempts, chain.Lookups(txA))
	assert.Less(t, elapsed, attempts*interval+200*time.Millisecond)
}

func TestReader_ResolveRevertedSkipsDecoding(t *testing.T) {
	chain := ledgertest.NewChain()
	chain.AddReceipt(txA, types.ReceiptStatusFailed, creator, chain.MetadataUpdate("props", 3))
	reader := ledger.NewReader(chain, chain.Registry)

	res, err := reader.Resolve(context.Background(), txA, 3, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Finalized)
	assert.False(t, res.Succeeded)
	assert.Empty(t, res.Events)
}

func TestReader_ResolveTransportFailure(t *testing.T) {
	chain := ledgertest.NewChain()
	chain.ReceiptErr = errors.New("dial tcp 127.0.0.1:8545: connection refused")
	reader := ledger.NewReader(chain, chain.Registry)

	res, err := reader.Resolve(context.Background(), txA, 3, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, res.Found)
	assert.Equal(t, 3, chain.Lookups(txA))
}

func TestReader_ResolveRejectsMalformedReference(t *testing.T) {
	chain := ledgertest.NewChain()
	reader := ledger.NewReader(chain, chain.Registry)

	_, err := reader.Resolve(context.Background(), "0xdead", 3, time.Millisecond)
	assert.Error(t, err)
	assert.Zero(t, chain.Lookups("0xdead"))
}

func TestReader_Sender(t *testing.T) {
	chain := ledgertest.NewChain()
	chain.AddReceipt(txA, types.ReceiptStatusSuccessful, creator)
	reader := ledger.NewReader(chain, chain.Registry)

	sender, err := reader.Sender(context.Background(), txA)
	require.NoError(t, err)
	assert.Equal(t, creator.Hex(), sender)

	_, err = reader.Sender(context.Background(), txB)
	assert.Error(t, err)
}
