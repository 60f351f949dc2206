package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/opencourt/publication-svc/internal/rabbitmq"
)

// HealthHandler reports the state of the service's external dependencies
type HealthHandler struct {
	Redis *redis.Client
	RMQ   *rabbitmq.Connection
}

func NewHealthHandler(rdb *redis.Client, rmq *rabbitmq.Connection) *HealthHandler {
	return &HealthHandler{
		Redis: rdb,
		RMQ:   rmq,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	services := make(map[string]string)
	status := "healthy"

	if h.Redis == nil {
		services["redis"] = "unhealthy: not configured"
		status = "unhealthy"
	} else if err := h.Redis.Ping(c.UserContext()).Err(); err != nil {
		services["redis"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		services["redis"] = "healthy"
	}

	if h.RMQ == nil || !h.RMQ.IsHealthy() {
		services["rabbitmq"] = "unhealthy: connection closed"
		status = "unhealthy"
	} else {
		services["rabbitmq"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}
	return c.JSON(response)
}
