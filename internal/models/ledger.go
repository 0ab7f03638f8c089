package models

// TransactionResolution is the outcome of resolving a transaction reference
// against the ledger.
//
// Succeeded is only meaningful when Finalized is true, and Events is only
// populated when Succeeded is true.
type TransactionResolution struct {
	Reference string `json:"txHash"`
	Found     bool   `json:"found"`
	Finalized bool   `json:"finalized"`
	Succeeded bool   `json:"succeeded"`

	// Inclusion info, zero unless Found
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	BlockHash   string `json:"blockHash,omitempty"`

	// Sender is the transaction's signer, filled lazily for kinds that need it
	Sender string `json:"sender,omitempty"`

	Events []DecodedEvent `json:"events,omitempty"`

	// Attempts is the number of receipt lookups performed
	Attempts int `json:"attempts"`
}

// EventsFrom returns the decoded events emitted by the given contract address,
// preserving log order
func (r *TransactionResolution) EventsFrom(contract string) []DecodedEvent {
	var out []DecodedEvent
	for _, ev := range r.Events {
		if equalAddress(ev.Contract, contract) {
			out = append(out, ev)
		}
	}
	return out
}
