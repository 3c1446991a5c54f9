package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"content-engine/pkg/config"
	"content-engine/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	PipelineExchange  = "content.pipeline"
	PipelineQueueName = "pipeline_events"

	EventDerivativePublished = "derivative.published"
	EventDerivativeFailed    = "derivative.failed"
)

// Event reports the outcome of one dispatch attempt.
type Event struct {
	Type         string    `json:"type"`
	DerivativeID string    `json:"derivative_id"`
	PostID       string    `json:"post_id"`
	ClientID     string    `json:"client_id"`
	Platform     string    `json:"platform"`
	PublishedURL string    `json:"published_url,omitempty"`
	Message      string    `json:"message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// priority puts failures ahead of routine publish notices.
func (e Event) priority() uint8 {
	if e.Type == EventDerivativeFailed {
		return 8
	}
	return 1
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	if err := channel.ExchangeDeclare(
		PipelineExchange, // name
		"direct",         // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := channel.QueueDeclare(
		PipelineQueueName, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		amqp.Table{
			"x-max-priority": 10,
		},
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range []string{EventDerivativePublished, EventDerivativeFailed} {
		if err := channel.QueueBind(PipelineQueueName, key, PipelineExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishEvent routes the event by its type.
func (c *Client) PublishEvent(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		PipelineExchange, // exchange
		event.Type,       // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     event.priority(),
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish %s for %s: %v", event.Type, event.DerivativeID, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("[RABBITMQ] Published %s for %s", event.Type, event.DerivativeID)
	return nil
}

// ConsumeEvents hands each event to handler. Malformed messages are dropped;
// handler errors requeue the message.
func (c *Client) ConsumeEvents(handler func(Event) error) error {
	msgs, err := c.channel.Consume(
		PipelineQueueName, // queue
		"",                // consumer
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from %s", PipelineQueueName)

	go func() {
		for msg := range msgs {
			var event Event
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal event: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false)
				continue
			}

			if err := handler(event); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for %s %s: %v", event.Type, event.DerivativeID, err)
				msg.Nack(false, true)
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}

// GetQueueLength returns the number of messages waiting in the pipeline queue.
func (c *Client) GetQueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(PipelineQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}
