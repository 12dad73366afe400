package profileapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventProfileCreated is published after a profile is stored.
const EventProfileCreated = "profile.created"

// ProfileEvent is the message handed to downstream workers such as readiness scoring.
type ProfileEvent struct {
	Event      string    `json:"event"`
	ProfileID  string    `json:"profile_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers profile events.
type Publisher interface {
	Publish(ctx context.Context, evt ProfileEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt ProfileEvent) error

func (f PublisherFunc) Publish(ctx context.Context, evt ProfileEvent) error {
	return f(ctx, evt)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ProfileEvent) error { return nil }

// AMQPPublisher sends events to a durable RabbitMQ queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// DialAMQP connects and declares the queue.
func DialAMQP(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("profileapi: connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("profileapi: open channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("profileapi: declare queue %s: %w", queue, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, queue: q}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt ProfileEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.channel.PublishWithContext(ctx,
		"",           // exchange
		p.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         evt.Event,
			Timestamp:    evt.OccurredAt,
			Body:         body,
		},
	)
}

// Close shuts the channel and the connection.
func (p *AMQPPublisher) Close() error {
	return errors.Join(p.channel.Close(), p.conn.Close())
}
