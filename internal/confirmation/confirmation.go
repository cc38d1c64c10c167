// Package confirmation sends order confirmation requests through a queue and
// consumes them by loading the order from the store service.
package confirmation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/order"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/queue"

	"go.uber.org/zap"
)

// DefaultQueue is the queue order ids are published to.
const DefaultQueue = "orderQueue"

// OrderFetcher loads an order by id. *storeapi.Client satisfies it.
type OrderFetcher interface {
	GetOrder(ctx context.Context, id int64) (order.Order, error)
}

type Producer struct {
	queue queue.Queue
	name  string
}

func NewProducer(q queue.Queue, name string) *Producer {
	if name == "" {
		name = DefaultQueue
	}
	return &Producer{queue: q, name: name}
}

// ConfirmOrder publishes orderID for the consumer.
func (p *Producer) ConfirmOrder(ctx context.Context, orderID int64) error {
	err := p.queue.Publish(ctx, p.name, strconv.FormatInt(orderID, 10))
	if err != nil {
		metrics.RecordQueueMessage("published", "error")
		return fmt.Errorf("publish order %d: %w", orderID, err)
	}
	metrics.RecordQueueMessage("published", "ok")
	return nil
}

type Consumer struct {
	queue  queue.Queue
	name   string
	orders OrderFetcher
	wait   time.Duration
	logger *zap.Logger
}

func NewConsumer(q queue.Queue, name string, orders OrderFetcher, wait time.Duration, logger *zap.Logger) *Consumer {
	if name == "" {
		name = DefaultQueue
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &Consumer{queue: q, name: name, orders: orders, wait: wait, logger: logger}
}

// Run receives messages until ctx is done. Failures on one message are
// logged and do not stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("order confirmation consumer started", zap.String("queue", c.name))
	for {
		payload, err := c.queue.Receive(ctx, c.name, c.wait)
		switch {
		case ctx.Err() != nil:
			c.logger.Info("order confirmation consumer stopped")
			return nil
		case errors.Is(err, queue.ErrEmpty):
			continue
		case err != nil:
			c.logger.Error("receive failed", zap.Error(err))
			// Back off so a dead broker does not spin the loop.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}
		c.Handle(ctx, payload)
	}
}

// Handle processes one message. It reports whether the order was loaded.
func (c *Consumer) Handle(ctx context.Context, payload string) bool {
	log := c.logger.With(zap.String("order_id", payload))
	log.Info("received order confirmation request")

	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		log.Warn("discarding malformed order id")
		metrics.RecordQueueMessage("consumed", "invalid")
		return false
	}

	o, err := c.orders.GetOrder(ctx, id)
	if err != nil {
		log.Error("fetch order failed", zap.Error(err))
		metrics.RecordQueueMessage("consumed", "error")
		return false
	}

	fields := []zap.Field{
		zap.Time("order_date", o.OrderDate),
		zap.String("ship_method", o.ShipMethod),
	}
	if o.Customer != nil {
		fields = append(fields, zap.String("customer", o.Customer.FirstName+" "+o.Customer.LastName))
	}
	if o.Cart != nil {
		fields = append(fields, zap.String("cart_id", o.Cart.ID), zap.Int("items", len(o.Cart.Items)))
	}
	if o.Total != nil {
		fields = append(fields, zap.String("total", o.Total.String()))
	}
	log.Info("card order confirmation received", fields...)
	metrics.RecordQueueMessage("consumed", "ok")
	return true
}
