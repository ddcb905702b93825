package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/karnika-s/heart-temp-sub000/internal/logger"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

const (
	prefetch       = 50
	maxBackoff     = 30 * time.Second
	deliverTimeout = 30 * time.Second

	retryDelay     = 30 * time.Second
	maxAttempts    = 5
	attemptsHeader = "x-attempts"
)

// Failed deliveries wait in RetryQueue until its TTL dead-letters them
// back to NotificationQueue.  Messages that can never be delivered, or
// that ran out of attempts, are parked in DeadQueue.
const (
	RetryQueue = NotificationQueue + ".retry"
	DeadQueue  = NotificationQueue + ".dead"
)

// ErrMalformedEvent marks a message that no retry can deliver.
var ErrMalformedEvent = errors.New("malformed notification event")

// Consumer reads NotificationQueue and hands each event to a Notifier,
// normally a notify.Mailer.
type Consumer struct {
	url     string
	deliver service.Notifier
	log     *logger.Logger
}

func NewConsumer(url string, deliver service.Notifier, l *logger.Logger) *Consumer {
	return &Consumer{url: url, deliver: deliver, log: l}
}

// Run keeps a consumer attached to the broker, reconnecting with
// exponential backoff, until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := dial(c.url)
		if err != nil {
			c.log.Warnf("notification consumer: dial failed: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warnf("notification consumer: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		c.log.Warnf("notification consumer: set QoS failed: %v", err)
	}
	if err := declareQueues(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(NotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			err := c.Handle(ctx, d.Body)
			n := attempts(d.Headers) + 1
			target := route(err, n)
			if target == "" {
				_ = d.Ack(false)
				continue
			}
			c.log.Errorf("notification consumer: attempt %d: %v; moving to %s", n, err, target)
			if perr := ch.PublishWithContext(ctx, "", target, false, false, amqp.Publishing{
				ContentType:  d.ContentType,
				DeliveryMode: amqp.Persistent,
				MessageId:    d.MessageId,
				Timestamp:    d.Timestamp,
				Headers:      amqp.Table{attemptsHeader: int32(n)},
				Body:         d.Body,
			}); perr != nil {
				// keep the message on the broker and let the next connection try again
				_ = d.Nack(false, true)
				return fmt.Errorf("publish to %s: %w", target, perr)
			}
			_ = d.Ack(false)
		}
	}
}

func declareQueues(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if _, err := ch.QueueDeclare(RetryQueue, true, false, false, false, amqp.Table{
		"x-message-ttl":             int32(retryDelay / time.Millisecond),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": NotificationQueue,
	}); err != nil {
		return fmt.Errorf("retry queue declare: %w", err)
	}
	if _, err := ch.QueueDeclare(DeadQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("dead queue declare: %w", err)
	}
	return nil
}

// route returns the queue a message goes to after its attempt-th
// delivery ended with err, or "" when it is done.
func route(err error, attempt int) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedEvent), attempt >= maxAttempts:
		return DeadQueue
	default:
		return RetryQueue
	}
}

// attempts reads the delivery count stamped by earlier retries.
func attempts(h amqp.Table) int {
	switch v := h[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Handle decodes one message body and delivers it.  Undecodable or
// incomplete events fail with ErrMalformedEvent.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Template == "" || ev.To == "" {
		return fmt.Errorf("%w: event %s has no template or recipient", ErrMalformedEvent, ev.ID)
	}
	ctx, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()
	if err := c.deliver.Notify(ctx, ev.Notification()); err != nil {
		return fmt.Errorf("deliver %s: %w", ev.ID, err)
	}
	c.log.Infof("delivered %s notification %s to %s", ev.Template, ev.ID, ev.To)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
