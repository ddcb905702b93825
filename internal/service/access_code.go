package service

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

// MaxCodesPerBatch bounds GenerateCodes and ImportCodes.
const MaxCodesPerBatch = 10000

// codeAlphabet leaves out 0, 1, I and O.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateCode returns a code shaped XXXX-XXXX-XXXX.
func generateCode() (string, error) {
	var raw [12]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	var b strings.Builder
	for i, c := range raw {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// NormalizeCode canonicalizes user input before lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseCodeList reads one code per line from the first CSV column.  An
// optional "code" header and blank cells are skipped.
func ParseCodeList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []string
	for first := true; ; first = false {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		cell := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
		if cell == "" || (first && strings.EqualFold(cell, "code")) {
			continue
		}
		out = append(out, cell)
	}
}

// GenerateCodes mints count unconsumed codes for the course.
func (s *Service) GenerateCodes(ctx context.Context, courseID uint64, count int) (codes []model.AccessCode, err error) {
	defer s.track("generate_codes", time.Now(), &err)
	if count <= 0 || count > MaxCodesPerBatch {
		return nil, ErrInvalidQuantity
	}
	if courseID == 0 {
		return nil, fmt.Errorf("%w: course is required", ErrInvalidInput)
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		codes = make([]model.AccessCode, 0, count)
		now := s.now()
		for len(codes) < count {
			ac, err := s.mintCode(ctx, tx, courseID, now)
			if err != nil {
				return err
			}
			codes = append(codes, ac)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// mintCode retries a few times on the unlikely collision.
func (s *Service) mintCode(ctx context.Context, tx Tx, courseID uint64, now time.Time) (model.AccessCode, error) {
	for attempt := 0; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return model.AccessCode{}, err
		}
		ac := model.AccessCode{Code: code, CourseID: courseID, CreatedAt: now}
		err = tx.AccessCodes().Create(ctx, &ac)
		if err == nil {
			return ac, nil
		}
		if !errors.Is(err, ErrDuplicateCode) || attempt == 4 {
			return ac, err
		}
	}
}

// ImportCodes stores externally produced codes for the course.  The
// batch is rejected as a whole if any code is blank, repeated or taken.
func (s *Service) ImportCodes(ctx context.Context, courseID uint64, raw []string) (codes []model.AccessCode, err error) {
	defer s.track("import_codes", time.Now(), &err)
	if courseID == 0 {
		return nil, fmt.Errorf("%w: course is required", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(raw))
	clean := make([]string, 0, len(raw))
	for _, c := range raw {
		c = NormalizeCode(c)
		if c == "" {
			continue
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: code %s listed twice", ErrInvalidInput, c)
		}
		seen[c] = true
		clean = append(clean, c)
	}
	if len(clean) == 0 || len(clean) > MaxCodesPerBatch {
		return nil, ErrInvalidQuantity
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		now := s.now()
		codes = make([]model.AccessCode, 0, len(clean))
		for _, c := range clean {
			ac := model.AccessCode{Code: c, CourseID: courseID, CreatedAt: now}
			if err := tx.AccessCodes().Create(ctx, &ac); err != nil {
				return fmt.Errorf("code %s: %w", c, err)
			}
			codes = append(codes, ac)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// ListCodes returns the codes of a course.
func (s *Service) ListCodes(ctx context.Context, courseID uint64) (codes []model.AccessCode, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		codes, err = tx.AccessCodes().ListByCourse(ctx, courseID)
		return err
	})
	return codes, err
}

// Redeem consumes code for userID and grants course access in the same
// transaction.  Of several concurrent redemptions exactly one wins.
func (s *Service) Redeem(ctx context.Context, code string, userID uint64) (ac model.AccessCode, err error) {
	defer s.track("redeem", time.Now(), &err)
	code = NormalizeCode(code)
	if code == "" {
		return ac, ErrInvalidCode
	}
	var note Notification
	err = s.store.WithTx(ctx, func(tx Tx) error {
		found, err := tx.AccessCodes().Get(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if found.Consumed {
			return ErrAlreadyConsumed
		}
		user, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		now := s.now()
		won, err := tx.AccessCodes().MarkConsumed(ctx, code, userID, now)
		if err != nil {
			return err
		}
		if !won {
			return ErrAlreadyConsumed
		}
		if _, err := tx.Grants().Grant(ctx, userID, found.CourseID, model.GrantSourceAccessCode, now); err != nil {
			return err
		}
		found.Consumed = true
		found.ConsumedAt = &now
		found.ConsumedBy = &userID
		ac = found
		note = Notification{
			Template: TemplateAccessCodeRedeemed,
			To:       user.Email,
			Vars: map[string]string{
				"code":      code,
				"course_id": fmt.Sprint(found.CourseID),
			},
		}
		return nil
	})
	if err != nil {
		return ac, err
	}
	return ac, s.notify(ctx, note)
}
