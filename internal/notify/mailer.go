package notify

import (
	"context"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/logger"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

// Mailer renders and sends notifications synchronously.  It satisfies
// service.Notifier and is also the delivery step of the queue consumer.
type Mailer struct {
	renderer *Renderer
	sender   Sender
}

var _ service.Notifier = (*Mailer)(nil)

func NewMailer(r *Renderer, s Sender) *Mailer {
	return &Mailer{renderer: r, sender: s}
}

func (m *Mailer) Notify(ctx context.Context, n service.Notification) error {
	msg, err := m.renderer.Render(n)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

// Async hands notifications to a goroutine and returns immediately.
// Delivery errors are logged, never returned.
type Async struct {
	next    service.Notifier
	log     *logger.Logger
	timeout time.Duration
}

func NewAsync(next service.Notifier, l *logger.Logger, timeout time.Duration) *Async {
	return &Async{next: next, log: l, timeout: timeout}
}

func (a *Async) Notify(_ context.Context, n service.Notification) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Notify(ctx, n); err != nil {
			a.log.Errorf("notify %s to %s: %v", n.Template, n.To, err)
		}
	}()
	return nil
}
