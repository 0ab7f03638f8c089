package models

import "strings"

// Event names emitted by the platform contracts
const (
	EventMetadataUpdate = "MetadataUpdate"
	EventTransfer       = "Transfer"
	EventComicCreated   = "ComicCreated"
	EventStripCreated   = "StripCreated"
	EventVoted          = "Voted"
	EventPromptPaid     = "PromptPaid"
)

// DecodedEvent is a log entry decoded with the ABI of a known contract
type DecodedEvent struct {
	// Identification
	Contract     string `json:"contract"`     // Emitting address, 0x checksummed
	ContractName string `json:"contractName"` // Registry name of the contract
	Name         string `json:"name"`         // ABI event name
	LogIndex     uint   `json:"logIndex"`     // Index within the block

	// Args holds every decoded argument by ABI name (indexed and non-indexed)
	Args map[string]any `json:"args,omitempty"`

	// Payload is the typed view of Args, set for events the gate consumes
	Payload EventPayload `json:"-"`
}

// EventPayload is implemented by the typed per-event argument structs
type EventPayload interface {
	EventName() string
}

// MetadataUpdatePayload is emitted by the collectible contracts on mint
type MetadataUpdatePayload struct {
	TokenID *BigInt `json:"tokenId"`
}

func (MetadataUpdatePayload) EventName() string { return EventMetadataUpdate }

// ComicCreatedPayload is emitted by the comics contract when a comic is created
type ComicCreatedPayload struct {
	ComicID *BigInt `json:"comicId"`
	Name    string  `json:"name"`
	Image   string  `json:"image"`
	Creator string  `json:"creator"`
}

func (ComicCreatedPayload) EventName() string { return EventComicCreated }

// StripCreatedPayload is emitted by the comics contract for a strip candidate
type StripCreatedPayload struct {
	StripID *BigInt `json:"stripId"`
	ComicID *BigInt `json:"comicId"`
	Day     *BigInt `json:"day"`
	Creator string  `json:"creator"`
}

func (StripCreatedPayload) EventName() string { return EventStripCreated }

// PromptPaidPayload is emitted by the prompts contract on payment
type PromptPaidPayload struct {
	Payer  string  `json:"payer"`
	Amount *BigInt `json:"amount"`
}

func (PromptPaidPayload) EventName() string { return EventPromptPaid }

func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// EqualAddress compares two hex addresses case-insensitively
func EqualAddress(a, b string) bool {
	return a != "" && equalAddress(a, b)
}
