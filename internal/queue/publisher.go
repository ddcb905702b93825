package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/karnika-s/heart-temp-sub000/internal/logger"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

const (
	dialTimeout  = 3 * time.Second
	dialCooldown = 10 * time.Second
)

// ErrBrokerUnavailable is returned without dialing while the publisher
// waits out dialCooldown after a failed connection attempt.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// Publisher implements service.Notifier by publishing persistent
// messages to NotificationQueue.  The connection is opened lazily and
// reopened after the broker drops it.  Dialing is bounded by dialTimeout
// and not retried for dialCooldown after a failure, so callers on the
// request path wait at most one short dial.
type Publisher struct {
	url  string
	log  *logger.Logger
	dial func(url string) (*amqp.Connection, error)
	now  func() time.Time

	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	downUntil time.Time
}

var _ service.Notifier = (*Publisher)(nil)

func NewPublisher(url string, l *logger.Logger) *Publisher {
	return &Publisher{url: url, log: l, dial: dial, now: time.Now}
}

func dial(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		if p.now().Before(p.downUntil) {
			return nil, ErrBrokerUnavailable
		}
		conn, err := p.dial(p.url)
		if err != nil {
			p.downUntil = p.now().Add(dialCooldown)
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) Notify(ctx context.Context, n service.Notification) error {
	ev := NewNotificationEvent(n, time.Now())
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.Warnf("notification %s not queued: %v", ev.ID, err)
		return err
	}
	err = ch.PublishWithContext(ctx, "", NotificationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.CreatedAt,
		Body:         body,
	})
	if err != nil {
		p.log.Warnf("notification %s not queued: %v", ev.ID, err)
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debugf("queued %s notification %s", ev.Template, ev.ID)
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
