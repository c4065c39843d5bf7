package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("account not found")
	// ErrConflict is returned when a create would duplicate an email.
	ErrConflict = errors.New("email already registered")
)

// AccountUpdate is a partial field set applied in a single write.
// Nil fields are left untouched. Setting a challenge and clearing the same
// challenge in one update is invalid.
type AccountUpdate struct {
	PasswordHash      *string
	IsVerified        *bool
	Verification      *entity.Challenge
	ClearVerification bool
	Reset             *entity.Challenge
	ClearReset        bool
	LastLogin         *time.Time

	// ExpectVerification and ExpectReset make the update conditional: it
	// applies only while the stored secret still equals the given value and
	// expires after ExpectAt. Otherwise Update returns ErrNotFound and
	// writes nothing, so a secret is redeemed at most once.
	ExpectVerification string
	ExpectReset        string
	ExpectAt           time.Time
}

// AccountRepository defines durable keyed storage of accounts.
// Email lookups match the stored value exactly.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	FindByID(ctx context.Context, id string) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindByVerificationCode(ctx context.Context, code string, now time.Time) (*entity.Account, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.Account, error)
	Update(ctx context.Context, id string, upd AccountUpdate) (*entity.Account, error)
	Delete(ctx context.Context, id string) error
}

// Holds reports whether a satisfies the update's secret preconditions.
func (u AccountUpdate) Holds(a *entity.Account) bool {
	if u.ExpectVerification != "" && !a.Verification.Matches(u.ExpectVerification, u.ExpectAt) {
		return false
	}
	if u.ExpectReset != "" && !a.Reset.Matches(u.ExpectReset, u.ExpectAt) {
		return false
	}
	return true
}

// Apply mutates a in place. Stores without native partial updates share it.
func (u AccountUpdate) Apply(a *entity.Account) {
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.IsVerified != nil {
		a.IsVerified = *u.IsVerified
	}
	if u.ClearVerification {
		a.Verification = nil
	} else if u.Verification != nil {
		v := *u.Verification
		a.Verification = &v
	}
	if u.ClearReset {
		a.Reset = nil
	} else if u.Reset != nil {
		r := *u.Reset
		a.Reset = &r
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		a.LastLogin = &t
	}
}
