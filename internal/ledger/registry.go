package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/comicverse/txgate/internal/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract names used throughout the registry
const (
	ContractCharacters = "characters"
	ContractProps      = "props"
	ContractScenes     = "scenes"
	ContractComics     = "comics"
	ContractPrompts    = "prompts"
)

var (
	// ErrUnknownContract is returned when no address is registered under a name
	ErrUnknownContract = errors.New("contract not registered")
)

// Addresses are the deployed platform contract addresses. Empty entries are
// left unregistered.
type Addresses struct {
	Characters string
	Props      string
	Scenes     string
	Comics     string
	Prompts    string
}

// Contract is a platform contract with its parsed interface
type Contract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// Registry maps kinds and log addresses to the contracts this service trusts.
// It is immutable after construction.
type Registry struct {
	byName    map[string]*Contract
	byAddress map[common.Address]*Contract
}

// NewRegistry parses the platform ABIs and registers every configured address
func NewRegistry(addrs Addresses) (*Registry, error) {
	collectible, err := abi.JSON(strings.NewReader(CollectibleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse collectible ABI: %w", err)
	}
	comics, err := abi.JSON(strings.NewReader(ComicsABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse comics ABI: %w", err)
	}
	prompts, err := abi.JSON(strings.NewReader(PromptsABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompts ABI: %w", err)
	}

	r := &Registry{
		byName:    make(map[string]*Contract),
		byAddress: make(map[common.Address]*Contract),
	}

	entries := []struct {
		name string
		addr string
		abi  abi.ABI
	}{
		{ContractCharacters, addrs.Characters, collectible},
		{ContractProps, addrs.Props, collectible},
		{ContractScenes, addrs.Scenes, collectible},
		{ContractComics, addrs.Comics, comics},
		{ContractPrompts, addrs.Prompts, prompts},
	}
	for _, e := range entries {
		if e.addr == "" {
			continue
		}
		if !common.IsHexAddress(e.addr) {
			return nil, fmt.Errorf("invalid %s contract address %q", e.name, e.addr)
		}
		addr := common.HexToAddress(e.addr)
		if other, ok := r.byAddress[addr]; ok {
			return nil, fmt.Errorf("address %s registered for both %s and %s", addr.Hex(), other.Name, e.name)
		}
		c := &Contract{Name: e.name, Address: addr, ABI: e.abi}
		r.byName[e.name] = c
		r.byAddress[addr] = c
	}

	return r, nil
}

// ContractNameFor returns the registry name of the contract that authorizes kind
func ContractNameFor(kind models.MutationKind) string {
	switch kind {
	case models.CharacterMint:
		return ContractCharacters
	case models.PropMint:
		return ContractProps
	case models.SceneMint:
		return ContractScenes
	case models.ComicCreate, models.StripCandidateCreate:
		return ContractComics
	case models.PromptPurchase:
		return ContractPrompts
	default:
		return ""
	}
}

// ExpectedEvent returns the event name that authorizes kind
func ExpectedEvent(kind models.MutationKind) string {
	switch kind {
	case models.CharacterMint, models.PropMint, models.SceneMint:
		return models.EventMetadataUpdate
	case models.ComicCreate:
		return models.EventComicCreated
	case models.StripCandidateCreate:
		return models.EventStripCreated
	case models.PromptPurchase:
		return models.EventPromptPaid
	default:
		return ""
	}
}

// Lookup returns the contract registered under name
func (r *Registry) Lookup(name string) (*Contract, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}
	return c, nil
}

// ForKind returns the contract that authorizes kind
func (r *Registry) ForKind(kind models.MutationKind) (*Contract, error) {
	return r.Lookup(ContractNameFor(kind))
}

// ByAddress returns the contract deployed at addr, if any
func (r *Registry) ByAddress(addr common.Address) (*Contract, bool) {
	c, ok := r.byAddress[addr]
	return c, ok
}

// Names returns the registered contract names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
