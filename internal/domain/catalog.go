package domain

import "time"

// Category groups services. Names are stored upper-cased and unique.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service is read-mostly reference data: the monetary value of a
// deliverable and its due-date offset in days.
type Service struct {
	ID         string
	Name       string
	DueDays    int
	Value      float64
	CategoryID string
	IsHidden   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
