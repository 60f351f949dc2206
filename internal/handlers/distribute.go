package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/distribution"
	"github.com/opencourt/publication-svc/internal/models"
)

// DistributeHandler exposes the distribution engine over HTTP
type DistributeHandler struct {
	Coordinator *distribution.Coordinator
	Logger      *zap.Logger
}

func NewDistributeHandler(coordinator *distribution.Coordinator, logger *zap.Logger) *DistributeHandler {
	return &DistributeHandler{
		Coordinator: coordinator,
		Logger:      logger,
	}
}

// Distribute handles POST /api/v1/distribute. The body is a
// DistributionRequest: one publication event plus the destinations it fans
// out to. The per-destination outcomes are always returned; the response
// status reflects the aggregate failure kind when nothing was delivered.
func (h *DistributeHandler) Distribute(c *fiber.Ctx) error {
	var request models.DistributionRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if _, err := models.ParseAction(string(request.Event.Action)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if request.Event.PublicationID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "publication_id is required",
		})
	}

	summary, err := h.Coordinator.Distribute(c.UserContext(), request.Event, request.Destinations)
	if err != nil {
		h.Logger.Error("Distribution failed",
			zap.String("publication_id", request.Event.PublicationID.String()),
			zap.Error(err),
		)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error":    err.Error(),
			"outcomes": summary.Outcomes,
		})
	}

	return c.JSON(summary)
}

// statusForError maps the distribution error taxonomy onto response codes:
// upstream metadata failures and auth failures are gateway errors, a
// delivery exhaustion whose last status was 404 passes the 404 through, and
// a pure rate-limit rejection surfaces as 429.
func statusForError(err error) int {
	var deliveryErr *distribution.DeliveryError
	if errors.As(err, &deliveryErr) {
		if deliveryErr.LastStatus != nil && *deliveryErr.LastStatus == http.StatusNotFound {
			return fiber.StatusNotFound
		}
		return fiber.StatusBadGateway
	}

	var rateLimited *distribution.RateLimitedError
	if errors.As(err, &rateLimited) {
		return fiber.StatusTooManyRequests
	}

	// Upstream metadata, secret and auth failures all report as bad gateway
	return fiber.StatusBadGateway
}
