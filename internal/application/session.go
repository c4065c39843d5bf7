package application

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/validation"
)

// TokenPair carries both tokens with their expiry instants and lifetimes.
// Cookie lifetimes use the TTLs so they never depend on the wall clock.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	AccessTTL          time.Duration
	RefreshToken       string
	RefreshTokenExpiry time.Time
	RefreshTTL         time.Duration
}

type LoginResult struct {
	Account *entity.Account
	Tokens  TokenPair
}

// SessionIssuer exchanges credentials for a signed token pair.
type SessionIssuer struct {
	core
	repo repository.AccountRepository
	jwt  *helpers.JWTManager
}

func NewSessionIssuer(repo repository.AccountRepository, jwt *helpers.JWTManager, opts ...Option) *SessionIssuer {
	return &SessionIssuer{core: newCore(opts), repo: repo, jwt: jwt}
}

// Login checks email and password against a verified account. Missing,
// unverified and wrong-password cases all fail with ErrInvalidCredentials.
func (s *SessionIssuer) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := validation.Require(validation.MsgLoginFields, email, password); err != nil {
		return nil, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	acc, err := s.repo.FindByEmail(sctx, email)
	if err != nil {
		if err = storeErr(err, ErrInvalidCredentials); err == ErrInvalidCredentials {
			helpers.DummyCompare(password)
		}
		return nil, err
	}
	if !acc.IsVerified {
		helpers.DummyCompare(password)
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(acc.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issue(acc.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	acc, err = s.repo.Update(sctx, acc.ID, repository.AccountUpdate{LastLogin: &now})
	if err != nil {
		return nil, storeErr(err, ErrInvalidCredentials)
	}
	s.index(ctx, acc)

	return &LoginResult{Account: acc, Tokens: pair}, nil
}

func (s *SessionIssuer) issue(accountID string) (TokenPair, error) {
	access, aexp, err := s.jwt.GenerateAccessToken(accountID)
	if err != nil {
		return TokenPair{}, oops.With("operation", "sign access token").With("account_id", accountID).Wrap(err)
	}
	refresh, rexp, err := s.jwt.GenerateRefreshToken(accountID)
	if err != nil {
		return TokenPair{}, oops.With("operation", "sign refresh token").With("account_id", accountID).Wrap(err)
	}
	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		AccessTTL:          s.jwt.AccessTTL,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
		RefreshTTL:         s.jwt.RefreshTTL,
	}, nil
}

// Authenticate returns the account id carried by a valid access token.
// Logout does not revoke tokens, so a token stays valid until it expires.
func (s *SessionIssuer) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil || claims.AccountID() == "" {
		return "", ErrUnauthenticated
	}
	return claims.AccountID(), nil
}
