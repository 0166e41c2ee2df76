package domain

import "time"

// Discount is a role-scoped percentage reduction on a service value.
// Tickets reference discounts by id; the percentage is read at
// computation time and only snapshotted when a payment is recorded.
type Discount struct {
	ID         string
	Cargo      string
	Percentage int
	Visible    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
