package application

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/mailer"
	"github.com/oksasatya/go-credential-lifecycle/pkg/validation"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = time.Hour

// ResetManager runs the forgot-password flow for verified accounts.
type ResetManager struct {
	core
	repo     repository.AccountRepository
	resetURL string
}

// NewResetManager builds reset links as resetURL + "/" + token.
func NewResetManager(repo repository.AccountRepository, resetURL string, opts ...Option) *ResetManager {
	return &ResetManager{core: newCore(opts), repo: repo, resetURL: strings.TrimRight(resetURL, "/")}
}

// ResetLink returns the URL a reset email points at.
func (m *ResetManager) ResetLink(token string) string {
	return m.resetURL + "/" + token
}

// RequestReset issues a reset token for a verified account and emails the
// link. The raw token is returned as well.
func (m *ResetManager) RequestReset(ctx context.Context, email string) (string, error) {
	if err := validation.Require(validation.MsgEmailRequired, email); err != nil {
		return "", err
	}

	sctx, cancel := m.storeCtx(ctx)
	defer cancel()

	acc, err := m.repo.FindByEmail(sctx, email)
	if err != nil {
		return "", storeErr(err, ErrAccountNotFound)
	}
	if !acc.IsVerified {
		return "", ErrAccountNotFound
	}

	token, err := helpers.GenResetToken()
	if err != nil {
		return "", oops.With("operation", "generate reset token").Wrap(err)
	}
	ch := &entity.Challenge{Secret: token, ExpiresAt: m.clock().Add(ResetTokenTTL)}
	if _, err := m.repo.Update(sctx, acc.ID, repository.AccountUpdate{Reset: ch}); err != nil {
		return "", storeErr(err, ErrAccountNotFound)
	}

	m.notify(ctx, acc.ID, mailer.Notification{
		Kind:      mailer.KindForgotPassword,
		To:        acc.Email,
		Name:      acc.Name,
		ResetURL:  m.ResetLink(token),
		ExpiresAt: ch.ExpiresAt,
	})
	return token, nil
}

// PerformReset replaces the password of the account holding token and
// clears the token in the same write. The write is conditional on the token
// so that concurrent redemptions cannot both succeed.
func (m *ResetManager) PerformReset(ctx context.Context, token, password string) error {
	if err := validation.Require(validation.MsgResetFields, token, password); err != nil {
		return err
	}
	if err := validation.ValidatePasswordStrength(password); err != nil {
		return err
	}

	sctx, cancel := m.storeCtx(ctx)
	defer cancel()

	now := m.clock()
	acc, err := m.repo.FindByResetToken(sctx, token, now)
	if err != nil {
		return storeErr(err, ErrInvalidOrExpiredToken)
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return oops.With("operation", "hash password").With("account_id", acc.ID).Wrap(err)
	}
	if _, err := m.repo.Update(sctx, acc.ID, repository.AccountUpdate{
		PasswordHash: &hash,
		ClearReset:   true,
		ExpectReset:  token,
		ExpectAt:     now,
	}); err != nil {
		return storeErr(err, ErrInvalidOrExpiredToken)
	}

	m.notify(ctx, acc.ID, mailer.Notification{Kind: mailer.KindResetSuccess, To: acc.Email, Name: acc.Name})
	return nil
}
