package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventure/internal/domain"
)

// Config mirrors the config file's rabbitmq section.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// RabbitMQ is the fetch-job transport: the API process enqueues
// FetchRequests, worker processes drain them. Declares the exchange,
// queue and binding on connect so either side can start first.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	queueName  string
	logger     *slog.Logger
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true, // durable
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		queueName:  cfg.QueueName,
		logger:     logger,
	}, nil
}

// Enqueue publishes one fetch job as a persistent JSON message.
func (r *RabbitMQ) Enqueue(ctx context.Context, req domain.FetchRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal fetch request: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish fetch request: %w", err)
	}

	r.logger.Debug("enqueued fetch request",
		"source", req.APIName,
		"request_id", req.RequestID,
	)

	return nil
}

// Handler processes one delivered fetch request. A nil return acks the
// message; an error nacks it without requeue so the broker's dead-letter
// policy takes over.
type Handler func(ctx context.Context, req domain.FetchRequest) error

// Consume drains the queue until ctx is canceled. Delivery is
// at-least-once: a handler crash between work and ack means redelivery,
// which is safe because worker persistence is idempotent.
func (r *RabbitMQ) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := r.channel.ConsumeWithContext(
		ctx,
		r.queueName,
		"",    // consumer tag
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	r.logger.Info("consuming fetch requests", "queue", r.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			r.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (r *RabbitMQ) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler Handler) {
	var req domain.FetchRequest
	if err := json.Unmarshal(delivery.Body, &req); err != nil {
		r.logger.Error("dropping malformed fetch request", "error", err)
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, req); err != nil {
		r.logger.Error("handler failed, dead-lettering",
			"source", req.APIName,
			"request_id", req.RequestID,
			"error", err,
		)
		_ = delivery.Nack(false, false)
		return
	}

	_ = delivery.Ack(false)
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
