package dto

import "time"

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse response.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateServiceRequest payload.
type CreateServiceRequest struct {
	Name       string  `json:"name"`
	DueDays    int     `json:"due_days"`
	Value      float64 `json:"value"`
	CategoryID string  `json:"category_id"`
}

// ServiceResponse response.
type ServiceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DueDays    int       `json:"due_days"`
	Value      float64   `json:"value"`
	CategoryID string    `json:"category_id"`
	IsHidden   bool      `json:"is_hidden"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateDiscountRequest payload.
type CreateDiscountRequest struct {
	Cargo      string `json:"cargo"`
	Percentage int    `json:"percentage"`
}

// UpdateDiscountRequest payload.
type UpdateDiscountRequest struct {
	Cargo      *string `json:"cargo"`
	Percentage *int    `json:"percentage"`
}

// DiscountResponse response.
type DiscountResponse struct {
	ID         string    `json:"id"`
	Cargo      string    `json:"cargo"`
	Percentage int       `json:"percentage"`
	Visible    bool      `json:"visible"`
	CreatedAt  time.Time `json:"created_at"`
}
