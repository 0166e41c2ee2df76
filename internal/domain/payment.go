package domain

import "time"

// Payment is an immutable settlement snapshot. Records are append-only
// audit artifacts; the discount percentage is frozen at confirmation
// time even if the referenced discount changes later.
type Payment struct {
	ID              string
	TicketID        string
	TicketNumber    string
	OriginalValue   float64
	FinalValue      float64
	DiscountApplied int
	ConfirmedBy     string
	ConfirmedAt     time.Time
}
