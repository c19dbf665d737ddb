package model

import "time"

type Speaker string

const (
	SpeakerBuyer Speaker = "buyer"
	SpeakerAgent Speaker = "agent"
)

// Turn is one immutable message unit in a session transcript. Turns are
// totally ordered per session by Seq, starting at 0.
type Turn struct {
	SessionID string  `json:"session_id"`
	Seq       int     `json:"seq"`
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	// ProposedPrice is set on agent turns that carry a counter-offer or an
	// accepted price. It feeds the non-increasing counter rule.
	ProposedPrice *int      `json:"proposed_price,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
