package mq

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher pushes persistent JSON messages onto an exchange. Routing is the
// caller's concern; this layer only guarantees the delivery mode.
type Publisher interface {
	Publish(ctx context.Context, exchange string, routingKey string, body []byte) error
}

type channelPublisher struct {
	ch *amqp.Channel
}

func NewRabbitPublisher(ch *amqp.Channel) Publisher {
	return &channelPublisher{ch: ch}
}

func (p *channelPublisher) Publish(ctx context.Context, exchange string, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
