// Package ledgertest provides an in-process ledger for tests: receipts,
// senders and view calls answered with real ABI encoding.
package ledgertest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/comicverse/txgate/internal/ledger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Well-known contract addresses of the fake deployment
var (
	CharactersAddress = common.HexToAddress("0x00000000000000000000000000000000000c4a01")
	PropsAddress      = common.HexToAddress("0x00000000000000000000000000000000000c4a02")
	ScenesAddress     = common.HexToAddress("0x00000000000000000000000000000000000c4a03")
	ComicsAddress     = common.HexToAddress("0x00000000000000000000000000000000000c4a04")
	PromptsAddress    = common.HexToAddress("0x00000000000000000000000000000000000c4a05")
	ForeignAddress    = common.HexToAddress("0x00000000000000000000000000000000000f0f0f")
)

// Addresses returns the fake deployment as registry configuration
func Addresses() ledger.Addresses {
	return ledger.Addresses{
		Characters: CharactersAddress.Hex(),
		Props:      PropsAddress.Hex(),
		Scenes:     ScenesAddress.Hex(),
		Comics:     ComicsAddress.Hex(),
		Prompts:    PromptsAddress.Hex(),
	}
}

// ViewFunc answers a view call given its decoded inputs
type ViewFunc func(args []any) (any, error)

type viewKey struct {
	contract common.Address
	method   string
}

// Chain implements ledger.ReceiptBackend and bind.ContractCaller
type Chain struct {
	Registry *ledger.Registry

	mu        sync.Mutex
	receipts  map[common.Hash]*types.Receipt
	senders   map[common.Hash]common.Address
	hiddenFor map[common.Hash]int
	lookups   map[common.Hash]int
	views     map[viewKey]ViewFunc
	viewCalls map[string]int

	// ReceiptErr, when set, is returned by every receipt lookup
	ReceiptErr error
	nextBlock  uint64
}

// NewChain creates an empty chain with the fake deployment registered
func NewChain() *Chain {
	registry, err := ledger.NewRegistry(Addresses())
	if err != nil {
		panic(err)
	}
	return &Chain{
		Registry:  registry,
		receipts:  make(map[common.Hash]*types.Receipt),
		senders:   make(map[common.Hash]common.Address),
		hiddenFor: make(map[common.Hash]int),
		lookups:   make(map[common.Hash]int),
		views:     make(map[viewKey]ViewFunc),
		viewCalls: make(map[string]int),
		nextBlock: 100,
	}
}

// AddReceipt mines a transaction with the given status and logs
func (c *Chain) AddReceipt(txHash string, status uint64, sender common.Address, logs ...*types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := common.HexToHash(txHash)
	block := c.nextBlock
	c.nextBlock++

	for i, l := range logs {
		l.TxHash = hash
		l.BlockNumber = block
		l.Index = uint(i)
	}
	c.receipts[hash] = &types.Receipt{
		Status:      status,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(block),
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(block)),
		Logs:        logs,
	}
	c.senders[hash] = sender
}

// HideReceipt makes the first n lookups of txHash report NotFound
func (c *Chain) HideReceipt(txHash string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hiddenFor[common.HexToHash(txHash)] = n
}

// Lookups returns how many receipt lookups txHash received
func (c *Chain) Lookups(txHash string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups[common.HexToHash(txHash)]
}

// ViewCalls returns how many times method was called on any contract
func (c *Chain) ViewCalls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewCalls[method]
}

// SetView installs the answer for method on the contract registered as name
func (c *Chain) SetView(name, method string, fn ViewFunc) {
	contract, err := c.Registry.Lookup(name)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[viewKey{contract.Address, method}] = fn
}

// Constant installs a view that always returns v
func (c *Chain) Constant(name, method string, v any) {
	c.SetView(name, method, func([]any) (any, error) { return v, nil })
}

// TransactionReceipt implements ledger.ReceiptBackend
func (c *Chain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups[hash]++
	if c.ReceiptErr != nil {
		return nil, c.ReceiptErr
	}
	if n := c.hiddenFor[hash]; n > 0 {
		c.hiddenFor[hash] = n - 1
		return nil, ethereum.NotFound
	}
	r, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// TransactionSender implements ledger.ReceiptBackend
func (c *Chain) TransactionSender(ctx context.Context, hash common.Hash) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sender, ok := c.senders[hash]
	if !ok {
		return common.Address{}, ethereum.NotFound
	}
	return sender, nil
}

// CodeAt implements bind.ContractCaller
func (c *Chain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if _, ok := c.Registry.ByAddress(contract); ok {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

// CallContract implements bind.ContractCaller by ABI-decoding the call and
// packing the installed view's result
func (c *Chain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if call.To == nil || len(call.Data) < 4 {
		return nil, fmt.Errorf("malformed call")
	}
	contract, ok := c.Registry.ByAddress(*call.To)
	if !ok {
		return nil, nil
	}
	method, err := contract.ABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	fn, ok := c.views[viewKey{contract.Address, method.Name}]
	c.viewCalls[method.Name]++
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("execution reverted: no view installed for %s.%s", contract.Name, method.Name)
	}
	v, err := fn(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(v)
}
