package queue

import (
	"fmt"
	"time"

	"github.com/orgmesh/backend/internal/util"
	"github.com/orgmesh/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange the CRUD write path publishes
	// entity mutation events to.
	ExchangeName = "entity_events"
	// InvalidateQueue feeds the in-process neighbor cache invalidator.
	InvalidateQueue = "map_invalidate"
)

// Init dials RabbitMQ using environment configuration. The broker being down
// is not fatal for the map service (cache entries age out via TTL), so the
// error is returned instead of aborting.
func Init() (*amqp091.Connection, error) {
	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnv("RABBITMQ_HOST"),
		util.GetEnv("RABBITMQ_PORT"),
	)

	var conn *amqp091.Connection
	err := util.RetryErr(3, 2*time.Second, func() error {
		var dialErr error
		conn, dialErr = amqp091.Dial(connURL)
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// Setup declares the mutation event exchange and binds the invalidation
// queue to every entity routing key.
func Setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		InvalidateQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(InvalidateQueue, "entity.#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("[Queue] Invalidation queue ready", "queue", InvalidateQueue)
	return nil
}
