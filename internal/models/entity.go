package models

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// CandidateStatusPending is the status every new strip candidate starts in
const CandidateStatusPending = "pending"

// nativeDecimals is the number of decimals of the ledger's native unit
const nativeDecimals = 18

// Attributes are the kind-specific fields of an entity. They are stored as a
// single JSON document and flattened into the entity's JSON form.
type Attributes struct {
	TokenID       *BigInt         `json:"tokenId,omitempty"`
	Image         string          `json:"image,omitempty"`
	Description   string          `json:"description,omitempty"`
	ArtisticStyle string          `json:"artisticStyle,omitempty"`
	CoverImage    string          `json:"coverImage,omitempty"`
	ComicID       *BigInt         `json:"comicId,omitempty"`
	StripID       *BigInt         `json:"stripId,omitempty"`
	Day           *BigInt         `json:"day,omitempty"`
	ImageURLs     []string        `json:"imageUrls,omitempty"`
	Elements      json.RawMessage `json:"elements,omitempty"`
	Status        string          `json:"status,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`

	// Payments (wei, plus the native-unit rendering)
	AmountPaid          *BigInt `json:"amountPaid,omitempty"`
	RequiredPrice       *BigInt `json:"requiredPrice,omitempty"`
	AmountPaidNative    string  `json:"amountPaidNative,omitempty"`
	RequiredPriceNative string  `json:"requiredPriceNative,omitempty"`
}

// Entity is a domain object persisted after a gated mutation was authorized
type Entity struct {
	ID             string       `json:"id"`
	Kind           MutationKind `json:"kind"`
	Name           string       `json:"name"`
	CreatorAddress string       `json:"creatorAddress"`
	TxHash         string       `json:"txHash"`

	Attributes

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProcessedTransaction records that a transaction reference has been consumed.
// Rows are append-only.
type ProcessedTransaction struct {
	TxHash            string       `json:"txHash"`
	Kind              MutationKind `json:"kind"`
	ConsumedAt        time.Time    `json:"consumedAt"`
	ResultingEntityID string       `json:"resultingEntityId"`
}

// EntityFilter narrows entity listings
type EntityFilter struct {
	Kind    MutationKind
	Search  string  // Case-insensitive name substring
	ComicID *BigInt // Strip candidates only
	Day     *BigInt // Strip candidates only
	Limit   int
}

// FormatNative renders a wei amount in native units, e.g. 20000000000000000 -> "0.02"
func FormatNative(wei *big.Int) string {
	if wei == nil {
		return ""
	}
	return decimal.NewFromBigInt(wei, -nativeDecimals).String()
}
