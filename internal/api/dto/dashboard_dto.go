package dto

// SummaryResponse carries the dashboard counters.
type SummaryResponse struct {
	TotalUsers      int     `json:"total_users,omitempty"`
	TotalTickets    int     `json:"total_tickets"`
	InProgress      int     `json:"in_progress"`
	AwaitingPayment int     `json:"awaiting_payment"`
	Overdue         int     `json:"overdue"`
	DueSoon         int     `json:"due_soon"`
	DueToday        int     `json:"due_today"`
	DueUpcoming     int     `json:"due_upcoming"`
	MonthlyCounts   [12]int `json:"monthly_counts"`
}

// CreatorCountResponse pairs an operator with their ticket total.
type CreatorCountResponse struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}
