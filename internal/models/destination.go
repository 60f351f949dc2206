package models

import (
	"github.com/google/uuid"
)

// Destination is one external endpoint configured to receive publication
// events. OAuth is nil for legacy destinations that take unauthenticated
// requests.
type Destination struct {
	URL   string       `json:"url"`
	OAuth *OAuthConfig `json:"oauth,omitempty"`
}

// OAuthConfig carries the client-credentials material for one subscriber.
// The key fields are opaque secret names resolved through the secret store,
// never the credentials themselves.
type OAuthConfig struct {
	SubscriberID    uuid.UUID `json:"subscriber_id"`
	TokenURL        string    `json:"token_url"`
	ClientIDKey     string    `json:"client_id_key"`
	ClientSecretKey string    `json:"client_secret_key"`
	ScopeKey        string    `json:"scope_key"`
}
