package models

import "time"

// PendingCheckout is the buyer state written before redirecting to the hosted
// payment page. The gateway returns the browser with nothing but a
// payment=success|failed|cancelled query parameter, so reconciliation has to
// re-derive the order from this record. Stored in Redis keyed by user id,
// TTL-bound, cleared once a ticket is in hand.
type PendingCheckout struct {
	UserID     string    `json:"userId"`
	TicketType string    `json:"ticketType"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Price      int       `json:"price"`
	CheckoutID string    `json:"checkoutId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
