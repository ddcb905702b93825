package service

import (
	"context"
	"fmt"
)

// Notification template names.
const (
	TemplateInvitation         = "invitation"
	TemplateAccessCodeRedeemed = "access_code_redeemed"
)

// Notification asks the delivery side to render Template with Vars and
// send it to To.
type Notification struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Vars     map[string]string `json:"vars"`
}

// Notifier delivers notifications.  It is only called after the
// triggering transaction has committed.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

func (s *Service) notify(ctx context.Context, notes ...Notification) error {
	if s.notifier == nil {
		return nil
	}
	var failed int
	var last error
	for _, n := range notes {
		if err := s.notifier.Notify(ctx, n); err != nil {
			failed++
			last = err
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d: %v", ErrNotificationFailed, failed, len(notes), last)
}

func (s *Service) invitationLink(token string) string {
	return s.linkBase + "/invitations/" + token
}
