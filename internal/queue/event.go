// Package queue carries ledger notifications over RabbitMQ so mail
// delivery happens outside the request path.
package queue

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

// NotificationQueue is the durable queue notifications are published to.
const NotificationQueue = "ledger.notifications"

// NotificationEvent is the wire form of a service.Notification.
type NotificationEvent struct {
	ID        string            `json:"id"`
	Template  string            `json:"template"`
	To        string            `json:"to"`
	Vars      map[string]string `json:"vars"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotificationEvent stamps n with a fresh ULID so consumers can
// de-duplicate redeliveries.
func NewNotificationEvent(n service.Notification, at time.Time) NotificationEvent {
	return NotificationEvent{
		ID:        ulid.Make().String(),
		Template:  n.Template,
		To:        n.To,
		Vars:      n.Vars,
		CreatedAt: at.UTC(),
	}
}

func (e NotificationEvent) Notification() service.Notification {
	return service.Notification{Template: e.Template, To: e.To, Vars: e.Vars}
}
