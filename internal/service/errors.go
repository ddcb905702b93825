package service

import "errors"

// Ledger error kinds.  Callers compare with errors.Is; the HTTP layer
// maps each one to a status code.
var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientSeats   = errors.New("insufficient seats in license pool")
	ErrNoSeatsLeft         = errors.New("no seats left in class")
	ErrDuplicatePool       = errors.New("license pool already exists for course and scope")
	ErrDuplicateClass      = errors.New("class identifier already used for course and scope")
	ErrDuplicateInvitation = errors.New("invitation already exists")
	ErrDuplicateCode       = errors.New("access code already exists")
	ErrAlreadyAccepted     = errors.New("invitation already accepted")
	ErrAlreadyConsumed     = errors.New("access code already consumed")
	ErrInvalidCode         = errors.New("invalid access code")
	ErrInvalidState        = errors.New("invalid invitation state")
	ErrInvalidInput        = errors.New("invalid input")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")

	// ErrNotificationFailed wraps a delivery failure that happened after
	// the state change was committed.  The accompanying result is valid.
	ErrNotificationFailed = errors.New("notification failed")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrNotificationFailed, "notification_failed"},
	{ErrInvalidQuantity, "invalid_quantity"},
	{ErrInsufficientSeats, "insufficient_seats"},
	{ErrNoSeatsLeft, "no_seats_left"},
	{ErrDuplicatePool, "duplicate_pool"},
	{ErrDuplicateClass, "duplicate_class"},
	{ErrDuplicateInvitation, "duplicate_invitation"},
	{ErrDuplicateCode, "duplicate_code"},
	{ErrAlreadyAccepted, "already_accepted"},
	{ErrAlreadyConsumed, "already_consumed"},
	{ErrInvalidCode, "invalid_code"},
	{ErrInvalidState, "invalid_state"},
	{ErrInvalidInput, "invalid_input"},
	{ErrForbidden, "forbidden"},
	{ErrNotFound, "not_found"},
}

// Kind returns a stable snake_case label for err: "ok" for nil,
// "internal" for anything that is not a ledger error.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// IsWarning reports whether err only signals a failed notification.
func IsWarning(err error) bool {
	return errors.Is(err, ErrNotificationFailed)
}
