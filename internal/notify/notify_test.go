package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnika-s/heart-temp-sub000/internal/logger"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func invitationNote() service.Notification {
	return service.Notification{
		Template: service.TemplateInvitation,
		To:       "ana@example.org",
		Vars: map[string]string{
			"class":       "Spring Cohort",
			"course_id":   "7",
			"role":        "learner",
			"accept_link": "https://ledger.test/invitations/tok/accept",
			"reject_link": "https://ledger.test/invitations/tok/reject",
		},
	}
}

func TestRenderInvitation(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	msg, err := r.Render(invitationNote())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.org", msg.To)
	assert.Equal(t, "You are invited to join Spring Cohort as learner", msg.Subject)
	assert.Contains(t, msg.Text, "https://ledger.test/invitations/tok/accept")
	assert.Contains(t, msg.Text, "https://ledger.test/invitations/tok/reject")
}

func TestRenderAccessCodeRedeemed(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	msg, err := r.Render(service.Notification{
		Template: service.TemplateAccessCodeRedeemed,
		To:       "bo@example.org",
		Vars:     map[string]string{"code": "ABCD-EFGH-JKLM", "course_id": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Access code ABCD-EFGH-JKLM redeemed", msg.Subject)
	assert.Contains(t, msg.Text, "ABCD-EFGH-JKLM")
}

func TestRenderErrors(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render(service.Notification{Template: "nope"})
	assert.Error(t, err)

	_, err = r.Render(service.Notification{Template: service.TemplateInvitation, Vars: map[string]string{}})
	assert.Error(t, err, "missing vars must fail")
}

func TestMailerNotify(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	s := &recordingSender{}
	m := NewMailer(r, s)
	require.NoError(t, m.Notify(context.Background(), invitationNote()))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "ana@example.org", s.sent[0].To)

	s.err = errors.New("smtp down")
	assert.ErrorIs(t, m.Notify(context.Background(), invitationNote()), s.err)
}

func TestNewSender(t *testing.T) {
	l := logger.New(logger.Options{Output: &bytes.Buffer{}})

	_, err := NewSender("resend", "noreply@example.org", "", "", l)
	assert.Error(t, err)
	_, err = NewSender("sendgrid", "noreply@example.org", "", "", l)
	assert.Error(t, err)
	_, err = NewSender("pigeon", "noreply@example.org", "", "", l)
	assert.Error(t, err)

	s, err := NewSender("resend", "noreply@example.org", "re_key", "", l)
	require.NoError(t, err)
	assert.IsType(t, &resendSender{}, s)

	s, err = NewSender("", "noreply@example.org", "", "", l)
	require.NoError(t, err)
	assert.IsType(t, logSender{}, s)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Output: &buf})

	require.NoError(t, NewLogSender(l).Send(context.Background(), Message{To: "a@b.c", Subject: "hi", Text: "body"}))
	assert.Contains(t, buf.String(), "a@b.c")
	assert.Contains(t, buf.String(), "body")
}
