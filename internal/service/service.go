// Package service implements the enrollment license ledger: pools,
// class seat ledgers, the invitation state machine and access code
// redemption.  Every mutating operation runs in exactly one Store
// transaction; notifications are sent only after it commits.
package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Admin  bool
}

// Observer receives the outcome of every public operation.
type Observer interface {
	ObserveOperation(op string, took time.Duration, err error)
}

// Service is the ledger.  It holds no mutable state of its own and is
// safe for concurrent use.
type Service struct {
	store    Store
	notifier Notifier
	observer Observer
	now      func() time.Time
	newToken func() string
	newCode  func() (string, error)
	linkBase string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets where invitation and redemption messages go.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithObserver sets the operation observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTokenGenerator overrides the invitation token source.
func WithTokenGenerator(f func() string) Option {
	return func(s *Service) { s.newToken = f }
}

// WithCodeGenerator overrides the access code source.
func WithCodeGenerator(f func() (string, error)) Option {
	return func(s *Service) { s.newCode = f }
}

// WithLinkBase sets the public URL used to build invitation links.
func WithLinkBase(url string) Option {
	return func(s *Service) { s.linkBase = strings.TrimRight(url, "/") }
}

// New returns a Service backed by store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: func() string { return uuid.NewString() },
		newCode:  generateCode,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) track(op string, start time.Time, err *error) {
	if s.observer != nil {
		s.observer.ObserveOperation(op, time.Since(start), *err)
	}
}
