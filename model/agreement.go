package model

import "time"

// Agreement is the single binding record of the final price for a session.
// At most one exists per session.
type Agreement struct {
	SessionID  string    `json:"session_id"`
	FinalPrice int       `json:"final_price"`
	CreatedAt  time.Time `json:"created_at"`
}
