package models

// LocationMetadata describes the court or tribunal location a publication
// belongs to, as served by the channel-management service.
type LocationMetadata struct {
	LocationID   string   `json:"location_id"`
	Name         string   `json:"name"`
	Jurisdiction []string `json:"jurisdiction"`
	Region       []string `json:"region"`
}
