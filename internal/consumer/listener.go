package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/opencourt/publication-svc/internal/config"
	"github.com/opencourt/publication-svc/internal/distribution"
	"github.com/opencourt/publication-svc/internal/models"
	"github.com/opencourt/publication-svc/internal/rabbitmq"
)

// Listener consumes distribution requests off the queue and runs them
// through the coordinator. Per-destination failures are reported in the
// summary and logged; the message is still acknowledged since the retry
// budget for each destination has already been spent.
type Listener struct {
	cfg         *config.RabbitMQConfig
	conn        *rabbitmq.Connection
	coordinator *distribution.Coordinator
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     bool
}

func NewListener(cfg *config.RabbitMQConfig, conn *rabbitmq.Connection, coordinator *distribution.Coordinator, logger *zap.Logger) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		cfg:         cfg,
		conn:        conn,
		coordinator: coordinator,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("publication-distributor-%d", time.Now().Unix()),
	}
}

// Start sets channel QoS and begins consuming distribution requests
func (l *Listener) Start() error {
	if l.cfg.DistributionQueue == "" {
		return fmt.Errorf("distribution queue is required")
	}

	if err := l.conn.SetQoS(l.cfg.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := l.startConsuming(); err != nil {
		return err
	}

	l.started = true
	l.logger.Info("Listener started and consuming distribution requests",
		zap.String("queue", l.cfg.DistributionQueue),
		zap.String("consumer_tag", l.consumerTag),
	)
	return nil
}

func (l *Listener) startConsuming() error {
	messages, err := l.conn.ConsumeMessages(
		l.cfg.DistributionQueue,
		l.consumerTag,
		false, // autoAck (we manually ACK)
		false, // exclusive
		false, // noLocal
		false, // noWait
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from queue %s: %w", l.cfg.DistributionQueue, err)
	}

	go l.processMessages(messages)
	return nil
}

// Stop gracefully stops the listener
func (l *Listener) Stop() error {
	l.logger.Info("Stopping listener",
		zap.String("consumer_tag", l.consumerTag),
	)
	l.cancel()

	if ch := l.conn.GetChannel(); ch != nil {
		if err := ch.Cancel(l.consumerTag, false); err != nil {
			l.logger.Error("Failed to cancel consumer",
				zap.String("consumer_tag", l.consumerTag),
				zap.Error(err),
			)
		}
	}

	l.logger.Info("Listener stopped")
	return nil
}

func (l *Listener) processMessages(messages <-chan amqp.Delivery) {
	for {
		select {
		case <-l.ctx.Done():
			l.logger.Info("Listener context cancelled, stopping message processing")
			return
		case msg, ok := <-messages:
			if !ok {
				l.logger.Warn("Message channel closed, attempting to restart consumer...",
					zap.String("queue", l.cfg.DistributionQueue),
				)
				l.restartConsuming()
				return
			}
			ProcessMessage(l.logger, l.cfg.DistributionQueue, msg, l)
		}
	}
}

// restartConsuming retries registering the consumer after a channel closure
// until it succeeds or the listener is stopped
func (l *Listener) restartConsuming() {
	for l.started {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		time.Sleep(2 * time.Second)

		if !l.conn.IsHealthy() {
			l.logger.Debug("Connection not healthy yet, waiting...",
				zap.String("queue", l.cfg.DistributionQueue),
			)
			continue
		}

		if err := l.startConsuming(); err != nil {
			l.logger.Error("Failed to restart consuming after channel close, will retry",
				zap.String("queue", l.cfg.DistributionQueue),
				zap.Error(err),
			)
			time.Sleep(5 * time.Second)
			continue
		}

		l.logger.Info("Successfully restarted consumer after channel close",
			zap.String("queue", l.cfg.DistributionQueue),
		)
		return
	}
}

// HandleEvent implements the EventHandler interface. The decoded message is
// a DistributionRequest in JSON form.
func (l *Listener) HandleEvent(decodedMessage string) error {
	var request models.DistributionRequest
	if err := json.Unmarshal([]byte(decodedMessage), &request); err != nil {
		return fmt.Errorf("failed to unmarshal distribution request: %w", err)
	}
	if _, err := models.ParseAction(string(request.Event.Action)); err != nil {
		return err
	}

	l.logger.Info("Processing distribution request",
		zap.String("publication_id", request.Event.PublicationID.String()),
		zap.String("action", string(request.Event.Action)),
		zap.Int("destinations", len(request.Destinations)),
	)

	summary, err := l.coordinator.Distribute(l.ctx, request.Event, request.Destinations)
	if err != nil {
		// Destination retry budgets are already spent; log and ACK
		l.logger.Error("Distribution completed with failures",
			zap.String("publication_id", request.Event.PublicationID.String()),
			zap.Error(err),
		)
		return nil
	}

	l.logger.Info("Distribution completed",
		zap.String("publication_id", request.Event.PublicationID.String()),
		zap.String("summary", summary.Message),
	)
	return nil
}
