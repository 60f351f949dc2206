package service

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/distribution"
	"github.com/opencourt/publication-svc/internal/rabbitmq"
)

// Service holds all application dependencies
// This eliminates global state and enables proper dependency injection
type Service struct {
	Logger      *zap.Logger
	Redis       *redis.Client
	RMQ         *rabbitmq.Connection
	Coordinator *distribution.Coordinator
}

// NewService creates a new service instance with all dependencies
func NewService(logger *zap.Logger, rdb *redis.Client, rmq *rabbitmq.Connection, coordinator *distribution.Coordinator) *Service {
	return &Service{
		Logger:      logger,
		Redis:       rdb,
		RMQ:         rmq,
		Coordinator: coordinator,
	}
}
