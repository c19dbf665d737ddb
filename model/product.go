package model

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ListPrice   int       `json:"list_price"`
	FloorPrice  int       `json:"-"` // secret; never serialized to any buyer-facing channel
	Description string    `json:"description"`
	SellerID    string    `json:"seller_id"`
	CreatedAt   time.Time `json:"created_at"`
}
