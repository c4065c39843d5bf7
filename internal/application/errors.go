package application

import (
	"context"
	"errors"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
)

var (
	ErrConflict              = errors.New("already registered")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode  = errors.New("invalid or expired verification code")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrTimeout               = errors.New("operation timed out")
)

// storeErr classifies a store failure. notFound replaces repository.ErrNotFound
// when the caller has a more specific meaning for it.
func storeErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, repository.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	}
	return err
}
