package mq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one delivery. A nil return acks the message; a
// Temporary error puts it back on the queue; any other error drops it so a
// poison message cannot loop forever.
type HandlerFunc func(ctx context.Context, body []byte) error

type Consumer interface {
	Consume(ctx context.Context, prefetch int, queue string, handler HandlerFunc) error
}

type channelConsumer struct {
	ch *amqp.Channel
}

func NewRabbitConsumer(ch *amqp.Channel) Consumer {
	return &channelConsumer{ch: ch}
}

// Consume blocks on the queue until the context is cancelled or the channel
// closes. Deliveries are acked one at a time; prefetch bounds how many are in
// flight unacked.
func (c *channelConsumer) Consume(ctx context.Context, prefetch int, queue string, handler HandlerFunc) error {
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch on %s: %w", queue, err)
	}

	tag := "consumer-" + queue
	deliveries, err := c.ch.Consume(queue, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = c.ch.Cancel(tag, false)
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			if err := handler(ctx, d.Body); err != nil {
				_ = d.Nack(false, requeueable(err))
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func requeueable(err error) bool {
	var te TempError
	return errors.As(err, &te)
}

// TempError marks a handler failure as transient so the delivery is requeued
// instead of dropped.
type TempError struct {
	Err error
}

func (e TempError) Error() string { return e.Err.Error() }

func (e TempError) Unwrap() error { return e.Err }

func (e TempError) Temporary() bool { return true }

// Temporary wraps err for requeue-on-failure handling.
func Temporary(err error) error {
	return TempError{Err: err}
}
