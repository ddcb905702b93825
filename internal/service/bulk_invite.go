package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

// BulkInviteHeader is the mandatory first line of a bulk invite file.
const BulkInviteHeader = "Emails"

// RowProblem is one rejected line of a bulk invite file.
type RowProblem struct {
	Line   int    `json:"line"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// BulkInviteError lists every problem found in a bulk invite file.  No
// invitation is created when it is returned.
type BulkInviteError struct {
	Problems []RowProblem
}

func (e *BulkInviteError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Email != "" {
			parts = append(parts, fmt.Sprintf("line %d (%s): %s", p.Line, p.Email, p.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("line %d: %s", p.Line, p.Reason))
		}
	}
	return "bulk invite rejected: " + strings.Join(parts, "; ")
}

func (e *BulkInviteError) Unwrap() error { return ErrInvalidInput }

type bulkRow struct {
	line  int
	email string
	user  model.User
}

// parseBulkInvite reads the header and one address per line.  Extra
// columns are ignored and blank lines skipped.
func parseBulkInvite(r io.Reader) ([]bulkRow, []RowProblem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []bulkRow
	var problems []RowProblem
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		line, _ := cr.FieldPos(0)
		cell := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
		if first {
			first = false
			if cell != BulkInviteHeader {
				problems = append(problems, RowProblem{Line: line, Reason: fmt.Sprintf("first line must be %q", BulkInviteHeader)})
				return nil, problems, nil
			}
			continue
		}
		if cell == "" {
			continue
		}
		rows = append(rows, bulkRow{line: line, email: strings.ToLower(cell)})
	}
	if first {
		problems = append(problems, RowProblem{Line: 1, Reason: "file is empty"})
	} else if len(rows) == 0 && len(problems) == 0 {
		problems = append(problems, RowProblem{Line: 2, Reason: "no e-mail addresses"})
	}
	return rows, problems, nil
}

// BulkInvite invites every address listed in r to the class as typ.
// The file is validated as a whole first; any bad row rejects it all.
func (s *Service) BulkInvite(ctx context.Context, actor Actor, classID uint64, typ string, r io.Reader) (invs []model.Invitation, err error) {
	defer s.track("bulk_invite", time.Now(), &err)
	if !model.ValidMemberRole(typ) {
		return nil, fmt.Errorf("%w: invitation type %q", ErrInvalidInput, typ)
	}
	rows, problems, err := parseBulkInvite(r)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &BulkInviteError{Problems: problems}
	}

	var notes []Notification
	err = s.store.WithTx(ctx, func(tx Tx) error {
		class, err := tx.Classes().Get(ctx, classID)
		if err != nil {
			return err
		}
		if err := authorizeClass(ctx, tx, actor, classID); err != nil {
			return err
		}
		if problems, err := s.checkBulkRows(ctx, tx, classID, typ, rows); err != nil {
			return err
		} else if len(problems) > 0 {
			return &BulkInviteError{Problems: problems}
		}
		invs = make([]model.Invitation, 0, len(rows))
		notes = make([]Notification, 0, len(rows))
		for _, row := range rows {
			inv, err := s.upsertInvitation(ctx, tx, actor, classID, row.user.ID, typ)
			if err != nil {
				return fmt.Errorf("line %d: %w", row.line, err)
			}
			invs = append(invs, inv)
			notes = append(notes, s.invitationNote(inv, class, row.user))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invs, s.notify(ctx, notes...)
}

// checkBulkRows resolves each address and rejects unknown accounts,
// repeats, and anyone already holding an invitation of this type.
func (s *Service) checkBulkRows(ctx context.Context, tx Tx, classID uint64, typ string, rows []bulkRow) ([]RowProblem, error) {
	var problems []RowProblem
	seen := make(map[string]int, len(rows))
	for i := range rows {
		row := &rows[i]
		if prev, dup := seen[row.email]; dup {
			problems = append(problems, RowProblem{Line: row.line, Email: row.email, Reason: fmt.Sprintf("duplicate of line %d", prev)})
			continue
		}
		seen[row.email] = row.line

		user, err := tx.Users().GetByEmail(ctx, row.email)
		if errors.Is(err, ErrNotFound) {
			problems = append(problems, RowProblem{Line: row.line, Email: row.email, Reason: "no account with this e-mail"})
			continue
		}
		if err != nil {
			return nil, err
		}
		if !user.IsActive {
			problems = append(problems, RowProblem{Line: row.line, Email: row.email, Reason: "account is inactive"})
			continue
		}
		row.user = user

		_, err = tx.Invitations().Find(ctx, classID, user.ID, typ)
		if err == nil {
			problems = append(problems, RowProblem{Line: row.line, Email: row.email, Reason: "already invited as " + typ})
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return problems, nil
}
