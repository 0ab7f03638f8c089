package models

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// MutationKind identifies the category of gated write a request performs
type MutationKind string

const (
	CharacterMint        MutationKind = "CHARACTER_MINT"
	PropMint             MutationKind = "PROP_MINT"
	SceneMint            MutationKind = "SCENE_MINT"
	ComicCreate          MutationKind = "COMIC_CREATE"
	StripCandidateCreate MutationKind = "STRIP_CANDIDATE_CREATE"
	PromptPurchase       MutationKind = "PROMPT_PURCHASE"
)

// AllKinds lists every mutation kind in a stable order
var AllKinds = []MutationKind{
	CharacterMint,
	PropMint,
	SceneMint,
	ComicCreate,
	StripCandidateCreate,
	PromptPurchase,
}

// Collection returns the storage collection (table) holding entities of this kind
func (k MutationKind) Collection() string {
	switch k {
	case CharacterMint:
		return "characters"
	case PropMint:
		return "props"
	case SceneMint:
		return "scenes"
	case ComicCreate:
		return "comics"
	case StripCandidateCreate:
		return "strip_candidates"
	case PromptPurchase:
		return "prompt_purchases"
	default:
		return ""
	}
}

// IsIdentity reports whether the kind confirms a minted token's metadata
func (k MutationKind) IsIdentity() bool {
	return k == CharacterMint || k == PropMint || k == SceneMint
}

// Valid reports whether k is one of the known kinds
func (k MutationKind) Valid() bool {
	return k.Collection() != ""
}

func (k MutationKind) String() string {
	return string(k)
}

// ClaimedFields are the values a client asserts about the mutation.
// Fields covered by a chain comparison are only used to select and check the
// matching event; the chain values are what get persisted.
type ClaimedFields struct {
	Name          string          `json:"name,omitempty"`
	Image         string          `json:"image,omitempty"`
	Description   string          `json:"description,omitempty"`
	ArtisticStyle string          `json:"artisticStyle,omitempty"`
	ComicID       *BigInt         `json:"comicId,omitempty"`
	StripID       *BigInt         `json:"stripId,omitempty"`
	ImageURLs     []string        `json:"imageUrls,omitempty"`
	Elements      json.RawMessage `json:"elements,omitempty"`
	Prompt        string          `json:"prompt,omitempty"`
}

// PendingMutationRequest is a client-submitted gated write.
// It is built per request and never persisted as such.
type PendingMutationRequest struct {
	TransactionReference string        `json:"txHash"`
	Kind                 MutationKind  `json:"kind"`
	Claimed              ClaimedFields `json:"claimed"`
	RequesterAddress     string        `json:"requesterAddress,omitempty"`
}

// Validate checks the request shape before any ledger access
func (r *PendingMutationRequest) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown mutation kind %q", r.Kind)
	}
	if r.TransactionReference == "" {
		return fmt.Errorf("transaction hash is required")
	}
	if !IsTransactionHash(r.TransactionReference) {
		return fmt.Errorf("transaction hash %q is not a 32-byte hex string", r.TransactionReference)
	}
	if r.RequesterAddress != "" && !IsAddress(r.RequesterAddress) {
		return fmt.Errorf("requester address %q is not a 20-byte hex string", r.RequesterAddress)
	}

	c := r.Claimed
	switch {
	case r.Kind.IsIdentity():
		if c.Name == "" || c.Image == "" {
			return fmt.Errorf("name and image are required")
		}
	case r.Kind == ComicCreate:
		if c.ComicID == nil || c.Name == "" || c.Image == "" {
			return fmt.Errorf("comicId, name and image are required")
		}
	case r.Kind == StripCandidateCreate:
		if c.ComicID == nil || c.StripID == nil {
			return fmt.Errorf("comicId and stripId are required")
		}
		if len(c.ImageURLs) == 0 {
			return fmt.Errorf("at least one image url is required")
		}
	}
	if len(c.Elements) > 0 && !json.Valid(c.Elements) {
		return fmt.Errorf("elements must be valid JSON")
	}
	return nil
}

// NormalizedReference returns the lower-cased transaction hash used as the
// idempotency key
func (r *PendingMutationRequest) NormalizedReference() string {
	return strings.ToLower(r.TransactionReference)
}

// IsTransactionHash reports whether s is a 0x-prefixed 32-byte hex string
func IsTransactionHash(s string) bool {
	return isHexOfLength(s, 32)
}

// IsAddress reports whether s is a 0x-prefixed 20-byte hex string
func IsAddress(s string) bool {
	return isHexOfLength(s, 20)
}

func isHexOfLength(s string, n int) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	raw := s[2:]
	if len(raw) != n*2 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}
