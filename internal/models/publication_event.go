package models

import (
	"time"

	"github.com/google/uuid"
)

// PublicationEvent describes one court/tribunal publication change as supplied
// by the caller. It is immutable for the life of one distribution attempt.
type PublicationEvent struct {
	PublicationID    uuid.UUID `json:"publication_id"`
	Action           Action    `json:"action"`
	Type             string    `json:"type"`
	IsFlatFile       bool      `json:"is_flat_file"`
	ListType         string    `json:"list_type"`
	Language         string    `json:"language"`
	Sensitivity      string    `json:"sensitivity"`
	ContentDate      time.Time `json:"content_date"`
	DisplayFrom      time.Time `json:"display_from"`
	DisplayTo        time.Time `json:"display_to"`
	LocationID       string    `json:"location_id"`
	Provenance       string    `json:"provenance"`
	SourceArtefactID *string   `json:"source_artefact_id,omitempty"`
}

// DistributionRequest is the wire shape accepted by both the HTTP API and the
// queue consumer: one publication event fanned out to a set of destinations.
type DistributionRequest struct {
	Event        PublicationEvent `json:"event"`
	Destinations []Destination    `json:"destinations"`
}
