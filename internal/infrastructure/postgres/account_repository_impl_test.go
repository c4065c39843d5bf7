package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
)

var columns = []string{
	"id", "name", "email", "password_hash", "is_verified",
	"verification_code", "verification_code_expires_at",
	"reset_token", "reset_token_expires_at",
	"last_login", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewAccountRepository(mock), mock
}

func strPtr(s string) *string { return &s }

func TestAccountRepository_Create(t *testing.T) {
	now := time.Now().UTC()
	exp := now.Add(24 * time.Hour)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantID    string
	}{
		{
			name: "created",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("Ada", "ada@x.com", "hash", false, "123456", exp, nil, nil).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
						AddRow("acc-1", now, now))
			},
			wantID: "acc-1",
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("Ada", "ada@x.com", "hash", false, "123456", exp, nil, nil).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: repository.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setupMock(mock)

			a := &entity.Account{
				Name:         "Ada",
				Email:        "ada@x.com",
				PasswordHash: "hash",
				Verification: &entity.Challenge{Secret: "123456", ExpiresAt: exp},
			}
			err := repo.Create(context.Background(), a)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, a.ID)
				assert.Equal(t, now, a.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_FindByEmail(t *testing.T) {
	now := time.Now().UTC()
	exp := now.Add(time.Hour)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		check     func(t *testing.T, a *entity.Account)
	}{
		{
			name: "found with pending reset",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`(?s)SELECT .+ FROM accounts WHERE email = \$1`).
					WithArgs("ada@x.com").
					WillReturnRows(pgxmock.NewRows(columns).AddRow(
						"acc-1", "Ada", "ada@x.com", "hash", true,
						nil, nil, strPtr("tok"), &exp,
						nil, now, now))
			},
			check: func(t *testing.T, a *entity.Account) {
				assert.Equal(t, "acc-1", a.ID)
				assert.True(t, a.IsVerified)
				assert.Nil(t, a.Verification)
				require.NotNil(t, a.Reset)
				assert.Equal(t, "tok", a.Reset.Secret)
				assert.Equal(t, exp, a.Reset.ExpiresAt)
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`(?s)SELECT .+ FROM accounts WHERE email = \$1`).
					WithArgs("ada@x.com").
					WillReturnRows(pgxmock.NewRows(columns))
			},
			wantErr: repository.ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`(?s)SELECT .+ FROM accounts WHERE email = \$1`).
					WithArgs("ada@x.com").
					WillReturnError(errors.New("connection refused"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setupMock(mock)

			a, err := repo.FindByEmail(context.Background(), "ada@x.com")

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, a)
			case tt.check != nil:
				require.NoError(t, err)
				tt.check(t, a)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_FindByVerificationCode_UsesStrictExpiry(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)SELECT .+ FROM accounts WHERE verification_code = \$1 AND verification_code_expires_at > \$2`).
		WithArgs("123456", now).
		WillReturnRows(pgxmock.NewRows(columns))

	_, err := repo.FindByVerificationCode(context.Background(), "123456", now)
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByResetToken(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	exp := now.Add(time.Hour)

	mock.ExpectQuery(`(?s)SELECT .+ FROM accounts WHERE reset_token = \$1 AND reset_token_expires_at > \$2`).
		WithArgs("tok", now).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			"acc-1", "Ada", "ada@x.com", "hash", true,
			nil, nil, strPtr("tok"), &exp,
			nil, now, now))

	a, err := repo.FindByResetToken(context.Background(), "tok", now)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByID_MalformedID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`(?s)SELECT .+ FROM accounts WHERE id = \$1`).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation})

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepository_Update(t *testing.T) {
	now := time.Now().UTC()
	verified := true
	hash := "newhash"

	tests := []struct {
		name  string
		upd   repository.AccountUpdate
		query string
		args  []any
	}{
		{
			name:  "verify clears code",
			upd:   repository.AccountUpdate{IsVerified: &verified, ClearVerification: true},
			query: `(?s)UPDATE accounts SET is_verified = \$1, verification_code = NULL, verification_code_expires_at = NULL, updated_at = now\(\) WHERE id = \$2 RETURNING`,
			args:  []any{true, "acc-1"},
		},
		{
			name:  "reset replaces hash and clears token",
			upd:   repository.AccountUpdate{PasswordHash: &hash, ClearReset: true},
			query: `(?s)UPDATE accounts SET password_hash = \$1, reset_token = NULL, reset_token_expires_at = NULL, updated_at = now\(\) WHERE id = \$2 RETURNING`,
			args:  []any{"newhash", "acc-1"},
		},
		{
			name:  "set reset challenge",
			upd:   repository.AccountUpdate{Reset: &entity.Challenge{Secret: "tok", ExpiresAt: now}},
			query: `(?s)UPDATE accounts SET reset_token = \$1, reset_token_expires_at = \$2, updated_at = now\(\) WHERE id = \$3 RETURNING`,
			args:  []any{"tok", now, "acc-1"},
		},
		{
			name:  "guarded reset redemption",
			upd:   repository.AccountUpdate{PasswordHash: &hash, ClearReset: true, ExpectReset: "tok", ExpectAt: now},
			query: `(?s)UPDATE accounts SET password_hash = \$1, reset_token = NULL, reset_token_expires_at = NULL, updated_at = now\(\) WHERE id = \$2 AND reset_token = \$3 AND reset_token_expires_at > \$4 RETURNING`,
			args:  []any{"newhash", "acc-1", "tok", now},
		},
		{
			name:  "guarded verification",
			upd:   repository.AccountUpdate{IsVerified: &verified, ClearVerification: true, ExpectVerification: "123456", ExpectAt: now},
			query: `(?s)UPDATE accounts SET is_verified = \$1, verification_code = NULL, verification_code_expires_at = NULL, updated_at = now\(\) WHERE id = \$2 AND verification_code = \$3 AND verification_code_expires_at > \$4 RETURNING`,
			args:  []any{true, "acc-1", "123456", now},
		},
		{
			name:  "last login",
			upd:   repository.AccountUpdate{LastLogin: &now},
			query: `(?s)UPDATE accounts SET last_login = \$1, updated_at = now\(\) WHERE id = \$2 RETURNING`,
			args:  []any{now, "acc-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectQuery(tt.query).
				WithArgs(tt.args...).
				WillReturnRows(pgxmock.NewRows(columns).AddRow(
					"acc-1", "Ada", "ada@x.com", "hash", true,
					nil, nil, nil, nil,
					&now, now, now))

			a, err := repo.Update(context.Background(), "acc-1", tt.upd)
			require.NoError(t, err)
			assert.Equal(t, "acc-1", a.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_UpdateMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)UPDATE accounts SET last_login`).
		WithArgs(now, "acc-404").
		WillReturnRows(pgxmock.NewRows(columns))

	_, err := repo.Update(context.Background(), "acc-404", repository.AccountUpdate{LastLogin: &now})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepository_UpdateGuardMiss(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	hash := "newhash"

	// a concurrent redemption already cleared the token, so no row matches
	mock.ExpectQuery(`(?s)UPDATE accounts SET .+ WHERE id = \$2 AND reset_token = \$3 AND reset_token_expires_at > \$4`).
		WithArgs("newhash", "acc-1", "tok", now).
		WillReturnRows(pgxmock.NewRows(columns))

	_, err := repo.Update(context.Background(), "acc-1", repository.AccountUpdate{
		PasswordHash: &hash,
		ClearReset:   true,
		ExpectReset:  "tok",
		ExpectAt:     now,
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
				WithArgs("acc-1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := repo.Delete(context.Background(), "acc-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db", MigrationURL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u:p@h/db", MigrationURL("postgresql://u:p@h/db"))
	assert.Equal(t, "pgx5://u@h/db", MigrationURL("pgx5://u@h/db"))
}
