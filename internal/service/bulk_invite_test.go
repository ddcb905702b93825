package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func TestBulkInvite(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	a := f.user("a@example.org")
	b := f.user("b@example.org")

	invs, err := f.svc.BulkInvite(ctx, admin, class.ID, model.MemberLearner,
		stringsReader("Emails\r\nA@example.org\r\n\r\nb@example.org\r\n"))
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, a.ID, invs[0].UserID)
	assert.Equal(t, b.ID, invs[1].UserID)
	assert.Len(t, f.out.all(), 2)
}

func TestBulkInviteRejectsWholeFile(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	ctx := context.Background()
	f.user("a@example.org")
	taken := f.user("taken@example.org")
	f.store.AddUser(model.User{Email: "off@example.org"})
	_, err := f.svc.Invite(ctx, admin, class.ID, taken.ID, model.MemberLearner)
	require.NoError(t, err)
	sentBefore := len(f.out.all())

	tests := map[string]struct {
		body  string
		lines []int
	}{
		"missing header":   {"email\na@example.org\n", []int{1}},
		"empty file":       {"", []int{1}},
		"header only":      {"Emails\n", []int{2}},
		"unknown account":  {"Emails\na@example.org\nghost@example.org\n", []int{3}},
		"repeated address": {"Emails\na@example.org\nA@EXAMPLE.ORG\n", []int{3}},
		"already invited":  {"Emails\na@example.org\ntaken@example.org\n", []int{3}},
		"inactive account": {"Emails\noff@example.org\na@example.org\n", []int{2}},
		"several problems": {"Emails\nghost@example.org\na@example.org\na@example.org\n", []int{2, 4}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.BulkInvite(ctx, admin, class.ID, model.MemberLearner, stringsReader(tc.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, service.ErrInvalidInput)

			var bulk *service.BulkInviteError
			require.True(t, errors.As(err, &bulk))
			var lines []int
			for _, p := range bulk.Problems {
				lines = append(lines, p.Line)
			}
			assert.Equal(t, tc.lines, lines)
		})
	}

	list, err := f.svc.ListInvitations(ctx, admin, class.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "no invitation is created from a rejected file")
	assert.Len(t, f.out.all(), sentBefore)
}

func TestBulkInviteAuthorization(t *testing.T) {
	f := newFixture(t)
	_, class := f.scenarioA(t)
	stranger := f.user("s@example.org")

	_, err := f.svc.BulkInvite(context.Background(), service.Actor{UserID: stranger.ID}, class.ID, model.MemberLearner,
		stringsReader("Emails\ns@example.org\n"))
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.svc.BulkInvite(context.Background(), admin, class.ID, "observer", stringsReader("Emails\n"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
