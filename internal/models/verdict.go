package models

// MismatchReason explains why the matcher refused to authorize a mutation
type MismatchReason string

const (
	ReasonNone                MismatchReason = ""
	ReasonEventNotFound       MismatchReason = "EVENT_NOT_FOUND"
	ReasonWrongEventType      MismatchReason = "WRONG_EVENT_TYPE"
	ReasonFieldMismatch       MismatchReason = "FIELD_MISMATCH"
	ReasonPaymentInsufficient MismatchReason = "PAYMENT_INSUFFICIENT"
)

// ExtractedFields are values read from the chain. They are authoritative for
// persistence over anything the client claimed.
type ExtractedFields struct {
	TokenID       *BigInt `json:"tokenId,omitempty"`
	ComicID       *BigInt `json:"comicId,omitempty"`
	StripID       *BigInt `json:"stripId,omitempty"`
	Day           *BigInt `json:"day,omitempty"`
	Name          string  `json:"name,omitempty"`
	Image         string  `json:"image,omitempty"`
	Description   string  `json:"description,omitempty"`
	Creator       string  `json:"creator,omitempty"`
	AmountPaid    *BigInt `json:"amountPaid,omitempty"`
	RequiredPrice *BigInt `json:"requiredPrice,omitempty"`
}

// AuthorizationVerdict is the output of the event matcher
type AuthorizationVerdict struct {
	Authorized bool           `json:"authorized"`
	Reason     MismatchReason `json:"mismatchReason,omitempty"`
	Detail     string         `json:"detail,omitempty"`

	Extracted ExtractedFields `json:"extractedFields"`

	// Event is the log that authorized (or was checked against) the request
	Event *DecodedEvent `json:"event,omitempty"`
}

// Authorize builds a positive verdict
func Authorize(ev *DecodedEvent, fields ExtractedFields) AuthorizationVerdict {
	return AuthorizationVerdict{Authorized: true, Extracted: fields, Event: ev}
}

// Reject builds a negative verdict
func Reject(reason MismatchReason, detail string) AuthorizationVerdict {
	return AuthorizationVerdict{Reason: reason, Detail: detail}
}
