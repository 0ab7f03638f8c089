package ledgertest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// Log ABI-encodes event of the contract registered as name, emitted at addr.
// Indexed values are given as topics, the rest as data.
func (c *Chain) Log(name string, addr common.Address, event string, topics []common.Hash, data ...any) *types.Log {
	contract, err := c.Registry.Lookup(name)
	if err != nil {
		panic(err)
	}
	ev, ok := contract.ABI.Events[event]
	if !ok {
		panic("unknown event " + event)
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		panic(err)
	}
	return &types.Log{
		Address: addr,
		Topics:  append([]common.Hash{ev.ID}, topics...),
		Data:    packed,
	}
}

// MetadataUpdate is emitted by a collectible contract (characters, props, scenes)
func (c *Chain) MetadataUpdate(name string, tokenID int64) *types.Log {
	contract, err := c.Registry.Lookup(name)
	if err != nil {
		panic(err)
	}
	return c.Log(name, contract.Address, "MetadataUpdate", nil, big.NewInt(tokenID))
}

// Transfer is the ERC-721 transfer of a collectible contract
func (c *Chain) Transfer(name string, from, to common.Address, tokenID int64) *types.Log {
	contract, err := c.Registry.Lookup(name)
	if err != nil {
		panic(err)
	}
	return c.Log(name, contract.Address, "Transfer", []common.Hash{
		AddressTopic(from), AddressTopic(to), common.BigToHash(big.NewInt(tokenID)),
	})
}

// ComicCreated is emitted by the comics contract
func (c *Chain) ComicCreated(comicID *big.Int, name, image string, creator common.Address) *types.Log {
	return c.Log("comics", ComicsAddress, "ComicCreated",
		[]common.Hash{common.BigToHash(comicID)}, name, image, creator)
}

// StripCreated is emitted by the comics contract
func (c *Chain) StripCreated(stripID, comicID, day *big.Int, creator common.Address) *types.Log {
	return c.Log("comics", ComicsAddress, "StripCreated",
		[]common.Hash{common.BigToHash(stripID), common.BigToHash(comicID)}, day, creator)
}

// Voted is emitted by the comics contract
func (c *Chain) Voted(stripID *big.Int, voter common.Address, amount *big.Int) *types.Log {
	return c.Log("comics", ComicsAddress, "Voted",
		[]common.Hash{common.BigToHash(stripID), AddressTopic(voter)}, amount)
}

// PromptPaid is emitted by the prompts contract
func (c *Chain) PromptPaid(payer common.Address, amount *big.Int) *types.Log {
	return c.Log("prompts", PromptsAddress, "PromptPaid",
		[]common.Hash{AddressTopic(payer)}, amount)
}

// AddressTopic left-pads addr into an indexed topic
func AddressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// Wei converts a decimal native-unit amount such as "0.02" to wei
func Wei(native string) *big.Int {
	return decimal.RequireFromString(native).Shift(18).BigInt()
}
