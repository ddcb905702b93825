// Package notify renders ledger notifications and delivers them by
// e-mail through Resend, SendGrid or the log.
package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/resend/resend-go/v3"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/karnika-s/heart-temp-sub000/internal/logger"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type resendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender sends through the Resend API.
func NewResendSender(apiKey, from string) Sender {
	return &resendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *resendSender) Send(ctx context.Context, m Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Text:    m.Text,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridSender struct {
	key  string
	from *sgmail.Email
}

// NewSendgridSender sends through the SendGrid v3 API.
func NewSendgridSender(apiKey, from string) Sender {
	return &sendgridSender{key: apiKey, from: sgmail.NewEmail("", from)}
}

func (s *sendgridSender) Send(_ context.Context, m Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = m.Subject
	p.AddTos(sgmail.NewEmail("", m.To))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(s.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", m.Text))

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

type logSender struct{ log *logger.Logger }

// NewLogSender writes messages to the log instead of sending them.
func NewLogSender(l *logger.Logger) Sender { return logSender{log: l} }

func (s logSender) Send(_ context.Context, m Message) error {
	s.log.Infof("mail to=%s subject=%q\n%s", m.To, m.Subject, m.Text)
	return nil
}

// NewSender picks a Sender by provider name.
func NewSender(provider, from, resendKey, sendgridKey string, l *logger.Logger) (Sender, error) {
	switch provider {
	case "resend":
		if resendKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required for the resend provider")
		}
		return NewResendSender(resendKey, from), nil
	case "sendgrid":
		if sendgridKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid provider")
		}
		return NewSendgridSender(sendgridKey, from), nil
	case "", "log":
		return NewLogSender(l), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", provider)
}
