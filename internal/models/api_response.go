package models

import "time"

// MutationResponse is returned when a gated mutation was applied
type MutationResponse struct {
	RequestID string          `json:"request_id"`
	State     string          `json:"state"`
	Entity    *Entity         `json:"entity"`
	Extracted ExtractedFields `json:"extractedFields"`
}

// EntityListResponse represents a list of entities of one kind
type EntityListResponse struct {
	Kind     MutationKind `json:"kind"`
	Entities []Entity     `json:"entities"`
	Total    int          `json:"total"`
}

// CandidateResponse is a strip candidate with its live vote tally
type CandidateResponse struct {
	Entity
	VoteCount       *BigInt `json:"voteCount"`
	VoteCountNative string  `json:"voteCountNative"`
}

// CandidatesResponse lists the current day's candidates of a comic and the
// winners of each earlier day
type CandidatesResponse struct {
	ComicID             *BigInt             `json:"comicId"`
	CurrentDay          *BigInt             `json:"currentDay"`
	VoteThreshold       *BigInt             `json:"voteThreshold"`
	VoteThresholdNative string              `json:"voteThresholdNative"`
	Candidates          []CandidateResponse `json:"candidates"`
	Winners             []CandidateResponse `json:"winners"`
}

// CoverResponse is the cover image of a comic
type CoverResponse struct {
	ComicID    *BigInt   `json:"comicId"`
	CoverImage string    `json:"coverImage"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Storage   string    `json:"storage"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail carries the stable, machine-readable outcome of a failed request
type ErrorDetail struct {
	Code      string         `json:"code"`
	Reason    MismatchReason `json:"reason,omitempty"`
	Message   string         `json:"message"`
	State     string         `json:"state,omitempty"`
	Retryable bool           `json:"retryable"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	RequestID string      `json:"request_id"`
	Error     ErrorDetail `json:"error"`
}
