package domain

import "time"

// EventType names a change notification emitted after a commit.
type EventType string

const (
	EventBidPlaced              EventType = "bid.placed"
	EventVerificationSubmitted  EventType = "verification.submitted"
	EventVerificationReviewed   EventType = "verification.reviewed"
	EventVerificationCallBooked EventType = "verification.call_booked"
)

// Event is delivered to subscribers in commit order per Key
// (item id for bids, user id for verifications).
type Event struct {
	Type         EventType            `json:"type"`
	Key          string               `json:"key"`
	OccurredAt   time.Time            `json:"occurred_at"`
	Bid          *Bid                 `json:"bid,omitempty"`
	Verification *VerificationRequest `json:"verification,omitempty"`
}
