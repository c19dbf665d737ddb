package model

import "time"

type SessionState string

const (
	SessionOpen      SessionState = "OPEN"
	SessionDealt     SessionState = "DEALT"
	SessionAbandoned SessionState = "ABANDONED"
)

// Terminal reports whether no further turns or state changes are allowed.
func (s SessionState) Terminal() bool {
	return s == SessionDealt || s == SessionAbandoned
}

type NegotiationSession struct {
	ID        string       `json:"id"`
	BuyerID   string       `json:"buyer_id"`
	ProductID string       `json:"product_id"`
	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
}
