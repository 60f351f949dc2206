package oauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/opencourt/publication-svc/internal/models"
	"github.com/opencourt/publication-svc/internal/secrets"
	"github.com/opencourt/publication-svc/internal/tokencache"
)

// AuthError indicates the client-credentials exchange with a subscriber's
// token endpoint failed. It is never retried; the destination attempt is
// aborted and reported.
type AuthError struct {
	SubscriberID uuid.UUID
	Err          error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token exchange for subscriber %s failed: %v", e.SubscriberID, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Issuer performs OAuth2 client-credentials token exchanges against each
// subscriber's token endpoint, resolving credential material through the
// secret store.
type Issuer struct {
	resolver   secrets.Resolver
	buffer     time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

func NewIssuer(resolver secrets.Resolver, buffer time.Duration, timeout time.Duration, logger *zap.Logger) *Issuer {
	return &Issuer{
		resolver:   resolver,
		buffer:     buffer,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Issue performs one client_credentials grant for the given subscriber
// config. The returned token carries a zero expiry when the endpoint omits
// expires_in, in which case the caller must not cache it.
func (i *Issuer) Issue(ctx context.Context, cfg models.OAuthConfig) (tokencache.Token, error) {
	clientID, err := i.resolver.Resolve(ctx, cfg.ClientIDKey)
	if err != nil {
		return tokencache.Token{}, err
	}
	clientSecret, err := i.resolver.Resolve(ctx, cfg.ClientSecretKey)
	if err != nil {
		return tokencache.Token{}, err
	}
	scope, err := i.resolver.Resolve(ctx, cfg.ScopeKey)
	if err != nil {
		return tokencache.Token{}, err
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, i.httpClient)
	tok, err := conf.Token(ctx)
	if err != nil {
		return tokencache.Token{}, &AuthError{SubscriberID: cfg.SubscriberID, Err: err}
	}
	if tok.AccessToken == "" {
		return tokencache.Token{}, &AuthError{
			SubscriberID: cfg.SubscriberID,
			Err:          fmt.Errorf("token endpoint returned no access_token"),
		}
	}

	token := tokencache.Token{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		// Subtract the buffer so the cached expiry is already conservative
		token.ExpiresAt = tok.Expiry.Add(-i.buffer).UnixMilli()
	} else {
		i.logger.Debug("Token endpoint reported no expiry, token will not be cached",
			zap.String("subscriber_id", cfg.SubscriberID.String()),
		)
	}

	i.logger.Info("Issued access token for subscriber",
		zap.String("subscriber_id", cfg.SubscriberID.String()),
		zap.Bool("cacheable", token.Cacheable()),
	)

	return token, nil
}
