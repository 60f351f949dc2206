package distribution

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/models"
	"github.com/opencourt/publication-svc/internal/oauth"
	"github.com/opencourt/publication-svc/internal/secrets"
	"github.com/opencourt/publication-svc/internal/tokencache"
)

// Files holds the rendered document representations of a publication
type Files struct {
	PDF   []byte
	Excel []byte
}

// ContentClient fetches publication content from the data-management service
type ContentClient interface {
	GetJSONBlob(ctx context.Context, publicationID uuid.UUID) (string, error)
	GetFlatFile(ctx context.Context, publicationID uuid.UUID) ([]byte, error)
	GetFiles(ctx context.Context, publicationID uuid.UUID) (Files, error)
}

// LocationClient fetches location metadata from the channel-management service
type LocationClient interface {
	GetLocation(ctx context.Context, locationID string) (models.LocationMetadata, error)
}

// TokenIssuer performs the client-credentials exchange for one subscriber
type TokenIssuer interface {
	Issue(ctx context.Context, cfg models.OAuthConfig) (tokencache.Token, error)
}

// RateLimiter bounds the outbound request rate per destination. Allow reports
// whether another distribution to the keyed destination may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

const (
	errKindSecret      = "secret_unavailable"
	errKindAuth        = "auth"
	errKindDelivery    = "delivery"
	errKindRateLimited = "rate_limited"
)

// Coordinator is the distribution entry point: it resolves the payload legs
// for an event, obtains tokens where destinations require them, and fans the
// event out to every destination independently.
type Coordinator struct {
	delivery  *Client
	tokens    *tokencache.Cache
	issuer    TokenIssuer
	content   ContentClient
	locations LocationClient
	limiter   RateLimiter
	logger    *zap.Logger
}

func NewCoordinator(
	delivery *Client,
	tokens *tokencache.Cache,
	issuer TokenIssuer,
	content ContentClient,
	locations LocationClient,
	limiter RateLimiter,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		delivery:  delivery,
		tokens:    tokens,
		issuer:    issuer,
		content:   content,
		locations: locations,
		limiter:   limiter,
		logger:    logger,
	}
}

// Distribute fans one publication event out to every destination and
// aggregates the per-destination outcomes. A non-nil error is returned only
// when nothing could be delivered anywhere: an upstream metadata failure, or
// every destination failing, in which case the most specific underlying
// error is propagated alongside the summary.
func (c *Coordinator) Distribute(ctx context.Context, event models.PublicationEvent, destinations []models.Destination) (models.DistributionSummary, error) {
	location, err := c.locations.GetLocation(ctx, event.LocationID)
	if err != nil {
		return models.DistributionSummary{}, &UpstreamMetadataError{Op: "location metadata", Err: err}
	}

	content, err := c.fetchContent(ctx, event)
	if err != nil {
		return models.DistributionSummary{}, err
	}

	headers := BuildHeaders(event, location)
	legs := SelectLegs(c.logger, event, content)

	outcomes := make([]models.DeliveryOutcome, len(destinations))
	errs := make([]error, len(destinations))

	var wg sync.WaitGroup
	for i, dest := range destinations {
		wg.Add(1)
		go func(i int, dest models.Destination) {
			defer wg.Done()
			outcomes[i], errs[i] = c.deliverTo(ctx, event, dest, legs, headers)
		}(i, dest)
	}
	wg.Wait()

	summary := models.DistributionSummary{
		Outcomes: outcomes,
		Message:  joinMessages(outcomes),
	}

	if len(destinations) > 0 && allFailed(outcomes) {
		return summary, firstError(errs)
	}
	return summary, nil
}

// fetchContent pulls the representations the event's legs will need. A DELETE
// needs none; a flat file needs the raw file; a structured list needs the
// JSON blob and the rendered documents.
func (c *Coordinator) fetchContent(ctx context.Context, event models.PublicationEvent) (Content, error) {
	if event.Action == models.ActionDelete {
		return Content{}, nil
	}

	if event.IsFlatFile {
		raw, err := c.content.GetFlatFile(ctx, event.PublicationID)
		if err != nil {
			return Content{}, &UpstreamMetadataError{Op: "flat file", Err: err}
		}
		return Content{FlatFile: raw, FlatFileName: flatFileName(event)}, nil
	}

	blob, err := c.content.GetJSONBlob(ctx, event.PublicationID)
	if err != nil {
		return Content{}, &UpstreamMetadataError{Op: "publication JSON", Err: err}
	}
	files, err := c.content.GetFiles(ctx, event.PublicationID)
	if err != nil {
		return Content{}, &UpstreamMetadataError{Op: "rendered documents", Err: err}
	}

	return Content{
		JSONBlob:     blob,
		Document:     files.PDF,
		DocumentName: event.PublicationID.String() + ".pdf",
	}, nil
}

// deliverTo runs one destination through its terminal state: rate check,
// token acquisition when configured, then each leg in order, stopping at the
// first failed leg. Failures here never affect other destinations.
func (c *Coordinator) deliverTo(ctx context.Context, event models.PublicationEvent, dest models.Destination, legs []Leg, headers map[string]string) (models.DeliveryOutcome, error) {
	outcome := models.DeliveryOutcome{Destination: dest.URL}

	if c.limiter != nil && !c.limiter.Allow(ctx, rateKey(dest.URL)) {
		err := &RateLimitedError{DestinationURL: dest.URL}
		outcome.ErrorKind = errKindRateLimited
		outcome.Message = err.Error()
		return outcome, err
	}

	bearer := ""
	if dest.OAuth != nil {
		auth := *dest.OAuth
		token, err := c.tokens.GetOrIssue(auth.SubscriberID, func() (tokencache.Token, error) {
			return c.issuer.Issue(ctx, auth)
		})
		if err != nil {
			c.logger.Error("Failed to obtain access token for destination",
				zap.String("destination", dest.URL),
				zap.String("subscriber_id", auth.SubscriberID.String()),
				zap.Error(err),
			)
			outcome.ErrorKind = classifyAuthError(err)
			outcome.Message = err.Error()
			return outcome, err
		}
		bearer = token.AccessToken
	}

	totalAttempts := 0
	for _, leg := range legs {
		attempts, err := c.delivery.Send(ctx, dest.URL, leg, headers, bearer)
		totalAttempts += attempts
		if err != nil {
			var de *DeliveryError
			if errors.As(err, &de) {
				outcome.HTTPStatus = de.LastStatus
			}
			outcome.ErrorKind = errKindDelivery
			outcome.Attempts = totalAttempts
			outcome.Message = err.Error()
			return outcome, err
		}
	}

	outcome.Success = true
	outcome.Attempts = totalAttempts
	outcome.Message = successMessage(event, dest.URL)

	c.logger.Info("Publication sent to destination",
		zap.String("destination", dest.URL),
		zap.String("publication_id", event.PublicationID.String()),
		zap.String("action", string(event.Action)),
		zap.Int("attempts", totalAttempts),
	)

	return outcome, nil
}

func successMessage(event models.PublicationEvent, destinationURL string) string {
	if event.Action == models.ActionDelete {
		return fmt.Sprintf("Successfully sent empty list to %s", destinationURL)
	}
	return fmt.Sprintf("Successfully sent list to %s", destinationURL)
}

func classifyAuthError(err error) string {
	var unavailable *secrets.UnavailableError
	if errors.As(err, &unavailable) {
		return errKindSecret
	}
	var authErr *oauth.AuthError
	if errors.As(err, &authErr) {
		return errKindAuth
	}
	return errKindAuth
}

func flatFileName(event models.PublicationEvent) string {
	if event.SourceArtefactID != nil && *event.SourceArtefactID != "" {
		return *event.SourceArtefactID
	}
	return event.PublicationID.String()
}

// rateKey buckets destinations by host so one noisy subscriber cannot starve
// others sharing the limiter.
func rateKey(destinationURL string) string {
	if parsed, err := url.Parse(destinationURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return destinationURL
}

func joinMessages(outcomes []models.DeliveryOutcome) string {
	messages := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		messages = append(messages, outcome.Message)
	}
	return strings.Join(messages, "\n")
}

func allFailed(outcomes []models.DeliveryOutcome) bool {
	for _, outcome := range outcomes {
		if outcome.Success {
			return false
		}
	}
	return true
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
