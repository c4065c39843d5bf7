package application

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/validation"
)

// AccountService owns registration, lookup and removal of accounts.
type AccountService struct {
	core
	repo     repository.AccountRepository
	verifier *VerificationManager
}

func NewAccountService(repo repository.AccountRepository, verifier *VerificationManager, opts ...Option) *AccountService {
	return &AccountService{core: newCore(opts), repo: repo, verifier: verifier}
}

// Register creates an unverified account and sends its verification code.
// If the code cannot be issued the new record is removed again.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*entity.Account, error) {
	if err := validation.ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.repo.FindByEmail(sctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr(err, nil)
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, oops.With("operation", "hash password").Wrap(err)
	}

	acc := &entity.Account{Name: name, Email: email, PasswordHash: hash}
	// The unique index decides races between concurrent signups.
	if err := s.repo.Create(sctx, acc); err != nil {
		return nil, storeErr(err, nil)
	}

	issued, err := s.verifier.IssueChallenge(ctx, acc)
	if err != nil {
		s.rollback(acc.ID, err)
		return nil, err
	}

	s.index(ctx, issued)
	return issued, nil
}

func (s *AccountService) rollback(id string, cause error) {
	// The request context may already be done; the cleanup still has to run.
	ctx, cancel := s.storeCtx(context.Background())
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.WithFields(logrus.Fields{
			"account_id": id,
			"cause":      cause.Error(),
			"error":      err.Error(),
		}).Error("failed to remove partially registered account")
	}
}

// Get returns the account with id.
func (s *AccountService) Get(ctx context.Context, id string) (*entity.Account, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	acc, err := s.repo.FindByID(sctx, id)
	if err != nil {
		return nil, storeErr(err, ErrAccountNotFound)
	}
	return acc, nil
}

// Delete removes the account with id.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.Delete(sctx, id); err != nil {
		return storeErr(err, ErrAccountNotFound)
	}
	s.unindex(ctx, id)
	return nil
}
