package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnika-s/heart-temp-sub000/internal/logger"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

func TestNewNotificationEvent(t *testing.T) {
	n := service.Notification{
		Template: service.TemplateAccessCodeRedeemed,
		To:       "bo@example.org",
		Vars:     map[string]string{"code": "ABCD-EFGH-JKLM"},
	}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))

	ev := NewNotificationEvent(n, at)
	_, err := ulid.Parse(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ev.CreatedAt.Location())
	assert.Equal(t, n, ev.Notification())

	other := NewNotificationEvent(n, at)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestConsumerHandle(t *testing.T) {
	var got []service.Notification
	deliver := service.NotifierFunc(func(_ context.Context, n service.Notification) error {
		if n.To == "fail@example.org" {
			return errors.New("mailbox full")
		}
		got = append(got, n)
		return nil
	})
	c := NewConsumer("amqp://unused", deliver, logger.New(logger.Options{Output: &bytes.Buffer{}}))

	body, err := json.Marshal(NewNotificationEvent(service.Notification{
		Template: service.TemplateInvitation, To: "ana@example.org", Vars: map[string]string{"class": "A"},
	}, time.Now()))
	require.NoError(t, err)
	require.NoError(t, c.Handle(context.Background(), body))
	require.Len(t, got, 1)
	assert.Equal(t, "ana@example.org", got[0].To)

	assert.ErrorIs(t, c.Handle(context.Background(), []byte("{not json")), ErrMalformedEvent)
	assert.ErrorIs(t, c.Handle(context.Background(), []byte(`{"id":"x","template":""}`)), ErrMalformedEvent)

	body, err = json.Marshal(NewNotificationEvent(service.Notification{
		Template: service.TemplateInvitation, To: "fail@example.org",
	}, time.Now()))
	require.NoError(t, err)
	err = c.Handle(context.Background(), body)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedEvent)
	assert.Equal(t, RetryQueue, route(err, 1))
}

func TestRoute(t *testing.T) {
	transient := errors.New("deliver x: 503 from provider")
	malformed := fmt.Errorf("%w: no recipient", ErrMalformedEvent)

	tests := []struct {
		name    string
		err     error
		attempt int
		want    string
	}{
		{name: "delivered", attempt: 1, want: ""},
		{name: "transient failure", err: transient, attempt: 1, want: RetryQueue},
		{name: "transient failure, one attempt left", err: transient, attempt: maxAttempts - 1, want: RetryQueue},
		{name: "out of attempts", err: transient, attempt: maxAttempts, want: DeadQueue},
		{name: "malformed", err: malformed, attempt: 1, want: DeadQueue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, route(tt.err, tt.attempt))
		})
	}
}

func TestAttempts(t *testing.T) {
	assert.Equal(t, 0, attempts(nil))
	assert.Equal(t, 0, attempts(amqp.Table{attemptsHeader: "3"}))
	assert.Equal(t, 3, attempts(amqp.Table{attemptsHeader: int32(3)}))
	assert.Equal(t, 4, attempts(amqp.Table{attemptsHeader: int64(4)}))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}

func TestPublisherBacksOffAfterDialFailure(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	dials := 0
	p := NewPublisher("amqp://unused", logger.New(logger.Options{Output: &bytes.Buffer{}}))
	p.now = func() time.Time { return clock }
	p.dial = func(string) (*amqp.Connection, error) {
		dials++
		return nil, errors.New("connection refused")
	}
	n := service.Notification{Template: service.TemplateInvitation, To: "ana@example.org"}

	err := p.Notify(context.Background(), n)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBrokerUnavailable)
	assert.Equal(t, 1, dials)

	clock = clock.Add(dialCooldown / 2)
	assert.ErrorIs(t, p.Notify(context.Background(), n), ErrBrokerUnavailable)
	assert.Equal(t, 1, dials)

	clock = clock.Add(dialCooldown)
	assert.Error(t, p.Notify(context.Background(), n))
	assert.Equal(t, 2, dials)

	assert.NoError(t, p.Close())
}
