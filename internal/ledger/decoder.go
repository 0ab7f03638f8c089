package ledger

import (
	"fmt"
	"math/big"

	"github.com/comicverse/txgate/internal/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Decode decodes a receipt log with the ABI of the registered contract that
// emitted it. It returns false for logs of foreign contracts, unknown event
// signatures and malformed payloads; those are not errors.
func (r *Registry) Decode(log *types.Log) (models.DecodedEvent, bool) {
	if log == nil || len(log.Topics) == 0 {
		return models.DecodedEvent{}, false
	}

	contract, ok := r.ByAddress(log.Address)
	if !ok {
		return models.DecodedEvent{}, false
	}

	ev, err := contract.ABI.EventByID(log.Topics[0])
	if err != nil {
		return models.DecodedEvent{}, false
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) != len(log.Topics)-1 {
		// Same signature, different indexing (e.g. ERC-20 vs ERC-721 Transfer)
		return models.DecodedEvent{}, false
	}

	args := make(map[string]any, len(ev.Inputs))
	if err := ev.Inputs.UnpackIntoMap(args, log.Data); err != nil {
		return models.DecodedEvent{}, false
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return models.DecodedEvent{}, false
	}

	payload, err := typedPayload(ev.Name, args)
	if err != nil {
		return models.DecodedEvent{}, false
	}

	return models.DecodedEvent{
		Contract:     log.Address.Hex(),
		ContractName: contract.Name,
		Name:         ev.Name,
		LogIndex:     log.Index,
		Args:         displayArgs(args),
		Payload:      payload,
	}, true
}

// DecodeLogs decodes every recognised log, preserving order
func (r *Registry) DecodeLogs(logs []*types.Log) []models.DecodedEvent {
	events := make([]models.DecodedEvent, 0, len(logs))
	for _, log := range logs {
		if ev, ok := r.Decode(log); ok {
			events = append(events, ev)
		}
	}
	return events
}

// typedPayload validates the argument types of the events the gate consumes.
// Events the gate does not consume get a nil payload.
func typedPayload(name string, args map[string]any) (models.EventPayload, error) {
	switch name {
	case models.EventMetadataUpdate:
		tokenID, err := bigArg(args, "_tokenId")
		if err != nil {
			return nil, err
		}
		return models.MetadataUpdatePayload{TokenID: models.NewBigInt(tokenID)}, nil

	case models.EventComicCreated:
		comicID, err := bigArg(args, "comicId")
		if err != nil {
			return nil, err
		}
		name, err := stringArg(args, "name")
		if err != nil {
			return nil, err
		}
		image, err := stringArg(args, "image")
		if err != nil {
			return nil, err
		}
		creator, err := addressArg(args, "creator")
		if err != nil {
			return nil, err
		}
		return models.ComicCreatedPayload{
			ComicID: models.NewBigInt(comicID),
			Name:    name,
			Image:   image,
			Creator: creator.Hex(),
		}, nil

	case models.EventStripCreated:
		stripID, err := bigArg(args, "stripId")
		if err != nil {
			return nil, err
		}
		comicID, err := bigArg(args, "comicId")
		if err != nil {
			return nil, err
		}
		day, err := bigArg(args, "day")
		if err != nil {
			return nil, err
		}
		creator, err := addressArg(args, "creator")
		if err != nil {
			return nil, err
		}
		return models.StripCreatedPayload{
			StripID: models.NewBigInt(stripID),
			ComicID: models.NewBigInt(comicID),
			Day:     models.NewBigInt(day),
			Creator: creator.Hex(),
		}, nil

	case models.EventPromptPaid:
		payer, err := addressArg(args, "payer")
		if err != nil {
			return nil, err
		}
		amount, err := bigArg(args, "amount")
		if err != nil {
			return nil, err
		}
		return models.PromptPaidPayload{Payer: payer.Hex(), Amount: models.NewBigInt(amount)}, nil
	}
	return nil, nil
}

func bigArg(args map[string]any, name string) (*big.Int, error) {
	v, ok := args[name].(*big.Int)
	if !ok || v == nil {
		return nil, fmt.Errorf("argument %s: expected uint256, got %T", name, args[name])
	}
	return v, nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok {
		return "", fmt.Errorf("argument %s: expected string, got %T", name, args[name])
	}
	return v, nil
}

func addressArg(args map[string]any, name string) (common.Address, error) {
	v, ok := args[name].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("argument %s: expected address, got %T", name, args[name])
	}
	return v, nil
}

// displayArgs renders ABI values in their JSON-friendly form
func displayArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case *big.Int:
			out[k] = val.String()
		case common.Address:
			out[k] = val.Hex()
		case common.Hash:
			out[k] = val.Hex()
		default:
			out[k] = val
		}
	}
	return out
}
