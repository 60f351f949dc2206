package models

// DeliveryOutcome is the terminal result for one destination of one event.
// Created once and never mutated afterwards.
type DeliveryOutcome struct {
	Destination string `json:"destination"`
	Success     bool   `json:"success"`
	HTTPStatus  *int   `json:"http_status,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Attempts    int    `json:"attempts"`
	Message     string `json:"message"`
}

// DistributionSummary aggregates the per-destination outcomes of one event.
// Message joins the per-destination messages in destination order.
type DistributionSummary struct {
	Outcomes []DeliveryOutcome `json:"outcomes"`
	Message  string            `json:"message"`
}
