package gate

import (
	"errors"

	"github.com/comicverse/txgate/internal/models"
)

// State is a step of the gated-mutation state machine
type State string

const (
	StateReceived  State = "RECEIVED"
	StateResolving State = "RESOLVING"
	StateResolved  State = "RESOLVED"
	StateVerifying State = "VERIFYING"
	StateVerified  State = "VERIFIED"
	StateReserving State = "RESERVING"
	StateReserved  State = "RESERVED"
	StateApplying  State = "APPLYING"
	StateApplied   State = "APPLIED"
	StateFailed    State = "FAILED"
)

// Outcome is the stable, machine-readable terminal code of a gated mutation
type Outcome string

const (
	OutcomeApplied             Outcome = "APPLIED"
	OutcomeNotFound            Outcome = "NOT_FOUND"
	OutcomeTransactionFailed   Outcome = "TRANSACTION_FAILED"
	OutcomeRejected            Outcome = "REJECTED"
	OutcomeDuplicate           Outcome = "DUPLICATE"
	OutcomeInfrastructureFault Outcome = "INFRASTRUCTURE_FAULT"
	OutcomeInvalidRequest      Outcome = "INVALID_REQUEST"
)

// ErrInvalidRequest wraps request validation failures
var ErrInvalidRequest = errors.New("invalid request")

// Result is the terminal outcome of Gate.Process
type Result struct {
	Outcome Outcome
	// State is the last state the request reached
	State  State
	Reason models.MismatchReason
	Detail string

	Entity     *models.Entity
	Verdict    *models.AuthorizationVerdict
	Resolution *models.TransactionResolution

	// Existing is the record that consumed the reference first, when known
	Existing *models.ProcessedTransaction

	// Path lists every state visited, in order
	Path []State
}

// Retryable reports whether resubmitting the same request may succeed
func (r Result) Retryable() bool {
	return r.Outcome == OutcomeNotFound || r.Outcome == OutcomeInfrastructureFault
}

// Message is a short human-readable description of the outcome
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeApplied:
		return "mutation applied"
	case OutcomeNotFound:
		return "transaction not confirmed yet, try again shortly"
	case OutcomeTransactionFailed:
		return "transaction reverted on the ledger"
	case OutcomeRejected:
		if r.Detail != "" {
			return r.Detail
		}
		return "transaction does not authorize this mutation"
	case OutcomeDuplicate:
		return "transaction was already used"
	case OutcomeInvalidRequest:
		return r.Detail
	default:
		return "internal error"
	}
}
