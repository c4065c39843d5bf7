// Package memory provides an in-process AccountRepository backed by maps.
// It honours the same uniqueness and expiry rules as the Postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.Account
	byEmail map[string]string
	now     func() time.Time
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]*entity.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[a.Email]; exists {
		return repository.ErrConflict
	}
	now := r.now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now

	r.byID[a.ID] = a.Clone()
	r.byEmail[a.Email] = a.ID
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.find(ctx, func(a *entity.Account) bool { return a.ID == id })
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *AccountRepository) FindByVerificationCode(ctx context.Context, code string, now time.Time) (*entity.Account, error) {
	return r.find(ctx, func(a *entity.Account) bool { return a.Verification.Matches(code, now) })
}

func (r *AccountRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.Account, error) {
	return r.find(ctx, func(a *entity.Account) bool { return a.Reset.Matches(token, now) })
}

func (r *AccountRepository) find(ctx context.Context, match func(*entity.Account) bool) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) Update(ctx context.Context, id string, upd repository.AccountUpdate) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || !upd.Holds(a) {
		return nil, repository.ErrNotFound
	}
	upd.Apply(a)
	a.UpdatedAt = r.now().UTC()
	return a.Clone(), nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byEmail, a.Email)
	delete(r.byID, id)
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
