package application

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/mailer"
	"github.com/oksasatya/go-credential-lifecycle/pkg/validation"
)

// VerificationCodeTTL is how long an issued verification code stays valid.
const VerificationCodeTTL = 24 * time.Hour

// VerificationManager moves accounts from unverified to verified.
type VerificationManager struct {
	core
	repo repository.AccountRepository
}

func NewVerificationManager(repo repository.AccountRepository, opts ...Option) *VerificationManager {
	return &VerificationManager{core: newCore(opts), repo: repo}
}

// IssueChallenge stores a fresh code on acc and sends it to the account's email.
func (m *VerificationManager) IssueChallenge(ctx context.Context, acc *entity.Account) (*entity.Account, error) {
	code, err := helpers.GenVerificationCode()
	if err != nil {
		return nil, oops.With("operation", "generate verification code").Wrap(err)
	}
	ch := &entity.Challenge{Secret: code, ExpiresAt: m.clock().Add(VerificationCodeTTL)}

	sctx, cancel := m.storeCtx(ctx)
	defer cancel()
	updated, err := m.repo.Update(sctx, acc.ID, repository.AccountUpdate{Verification: ch})
	if err != nil {
		return nil, storeErr(err, ErrAccountNotFound)
	}

	m.notify(ctx, updated.ID, mailer.Notification{
		Kind:      mailer.KindVerifyEmail,
		To:        updated.Email,
		Name:      updated.Name,
		Code:      code,
		ExpiresAt: ch.ExpiresAt,
	})
	return updated, nil
}

// ConsumeChallenge verifies the account holding code. A code works once,
// also under concurrent calls: the clearing write is conditional on it.
func (m *VerificationManager) ConsumeChallenge(ctx context.Context, code string) (*entity.Account, error) {
	if err := validation.ValidateVerificationCode(code); err != nil {
		return nil, err
	}

	sctx, cancel := m.storeCtx(ctx)
	defer cancel()

	now := m.clock()
	acc, err := m.repo.FindByVerificationCode(sctx, code, now)
	if err != nil {
		return nil, storeErr(err, ErrInvalidOrExpiredCode)
	}

	verified := true
	acc, err = m.repo.Update(sctx, acc.ID, repository.AccountUpdate{
		IsVerified:         &verified,
		ClearVerification:  true,
		ExpectVerification: code,
		ExpectAt:           now,
	})
	if err != nil {
		return nil, storeErr(err, ErrInvalidOrExpiredCode)
	}

	m.notify(ctx, acc.ID, mailer.Notification{Kind: mailer.KindWelcome, To: acc.Email, Name: acc.Name})
	m.index(ctx, acc)
	return acc, nil
}
