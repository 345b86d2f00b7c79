package queue

import (
	"context"
	"encoding/json"

	"github.com/orgmesh/backend/pkg/logger"
	"github.com/orgmesh/backend/pkg/mapgraph"

	"github.com/rabbitmq/amqp091-go"
)

// EntityMutationEvent is published by the CRUD write path whenever an entity
// or one of its relationships changes.
type EntityMutationEvent struct {
	TenantID   int64  `json:"tenant_id"`
	EntityKind string `json:"entity_kind"`
	EntityID   int64  `json:"entity_id"`
}

// StartInvalidationConsumer drains the invalidation queue and drops the
// matching neighbor cache entries. The neighbor cache is embedded in this
// process, which is why the consumer runs here rather than in a separate
// worker. The consumer stops when ctx is cancelled or the channel closes.
func StartInvalidationConsumer(ctx context.Context, ch *amqp091.Channel, cache mapgraph.NeighborCache) error {
	deliveries, err := ch.Consume(
		InvalidateQueue,
		"",    // consumer tag
		true,  // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					logger.Warn("[Queue] Invalidation channel closed")
					return
				}
				handleMutation(ctx, cache, delivery.Body)
			}
		}
	}()

	return nil
}

func handleMutation(ctx context.Context, cache mapgraph.NeighborCache, body []byte) {
	var event EntityMutationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn("[Queue] Dropping malformed mutation event", "err", err)
		return
	}

	ref := mapgraph.EntityRef{Kind: mapgraph.EntityKind(event.EntityKind), ID: event.EntityID}
	cache.InvalidateNeighbors(ctx, event.TenantID, ref)
	logger.Debug("[Queue] Invalidated neighbors", "tenant", event.TenantID, "entity", ref.NodeID())
}
