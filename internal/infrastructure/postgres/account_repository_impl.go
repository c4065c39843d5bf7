package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
)

// pgxPool is the subset of *pgxpool.Pool the repository needs, so that
// pgxmock can stand in for it.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id::text, name, email, password_hash, is_verified,
		verification_code, verification_code_expires_at,
		reset_token, reset_token_expires_at,
		last_login, created_at, updated_at`

type AccountRepository struct {
	pool pgxPool
}

func NewAccountRepository(pool pgxPool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	vCode, vExp := challengeArgs(a.Verification)
	rTok, rExp := challengeArgs(a.Reset)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash, is_verified,
			verification_code, verification_code_expires_at, reset_token, reset_token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at, updated_at
	`, a.Name, a.Email, a.PasswordHash, a.IsVerified, vCode, vExp, rTok, rExp)

	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if isCode(err, pgerrcode.UniqueViolation) {
			return repository.ErrConflict
		}
		return oops.With("operation", "create account").Wrap(err)
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.findOne(ctx, "find account by id", `WHERE id = $1`, id)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.findOne(ctx, "find account by email", `WHERE email = $1`, email)
}

func (r *AccountRepository) FindByVerificationCode(ctx context.Context, code string, now time.Time) (*entity.Account, error) {
	return r.findOne(ctx, "find account by verification code",
		`WHERE verification_code = $1 AND verification_code_expires_at > $2`, code, now)
}

func (r *AccountRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.Account, error) {
	return r.findOne(ctx, "find account by reset token",
		`WHERE reset_token = $1 AND reset_token_expires_at > $2`, token, now)
}

func (r *AccountRepository) findOne(ctx context.Context, op, where string, args ...any) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts `+where, args...)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isCode(err, pgerrcode.InvalidTextRepresentation) {
			return nil, repository.ErrNotFound
		}
		return nil, oops.With("operation", op).Wrap(err)
	}
	return a, nil
}

func (r *AccountRepository) Update(ctx context.Context, id string, upd repository.AccountUpdate) (*entity.Account, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.PasswordHash != nil {
		set("password_hash", *upd.PasswordHash)
	}
	if upd.IsVerified != nil {
		set("is_verified", *upd.IsVerified)
	}
	switch {
	case upd.ClearVerification:
		sets = append(sets, "verification_code = NULL", "verification_code_expires_at = NULL")
	case upd.Verification != nil:
		set("verification_code", upd.Verification.Secret)
		set("verification_code_expires_at", upd.Verification.ExpiresAt)
	}
	switch {
	case upd.ClearReset:
		sets = append(sets, "reset_token = NULL", "reset_token_expires_at = NULL")
	case upd.Reset != nil:
		set("reset_token", upd.Reset.Secret)
		set("reset_token_expires_at", upd.Reset.ExpiresAt)
	}
	if upd.LastLogin != nil {
		set("last_login", *upd.LastLogin)
	}
	sets = append(sets, "updated_at = now()")

	var where []string
	cond := func(expr string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(expr, len(args)))
	}
	cond("id = $%d", id)
	if upd.ExpectVerification != "" {
		cond("verification_code = $%d", upd.ExpectVerification)
		cond("verification_code_expires_at > $%d", upd.ExpectAt)
	}
	if upd.ExpectReset != "" {
		cond("reset_token = $%d", upd.ExpectReset)
		cond("reset_token_expires_at > $%d", upd.ExpectAt)
	}

	q := fmt.Sprintf(`UPDATE accounts SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), strings.Join(where, " AND "), accountColumns)

	a, err := scanAccount(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isCode(err, pgerrcode.InvalidTextRepresentation) {
			return nil, repository.ErrNotFound
		}
		return nil, oops.With("operation", "update account").With("account_id", id).Wrap(err)
	}
	return a, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		if isCode(err, pgerrcode.InvalidTextRepresentation) {
			return repository.ErrNotFound
		}
		return oops.With("operation", "delete account").With("account_id", id).Wrap(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var (
		a          entity.Account
		vCode, rTk *string
		vExp, rExp *time.Time
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.IsVerified,
		&vCode, &vExp, &rTk, &rExp, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Verification = challengeFrom(vCode, vExp)
	a.Reset = challengeFrom(rTk, rExp)
	return &a, nil
}

func challengeFrom(secret *string, exp *time.Time) *entity.Challenge {
	if secret == nil || exp == nil {
		return nil
	}
	return &entity.Challenge{Secret: *secret, ExpiresAt: *exp}
}

func challengeArgs(c *entity.Challenge) (any, any) {
	if c == nil {
		return nil, nil
	}
	return c.Secret, c.ExpiresAt
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
