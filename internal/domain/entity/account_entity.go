package entity

import (
	"time"
)

// Challenge is a pending secret with its expiry. A nil *Challenge on an
// Account means no challenge is pending, so the secret and its expiry are
// always present or absent together.
type Challenge struct {
	Secret    string
	ExpiresAt time.Time
}

// ActiveAt reports whether the challenge is still usable at now.
// A challenge expiring exactly at now is already expired.
func (c *Challenge) ActiveAt(now time.Time) bool {
	return c != nil && c.ExpiresAt.After(now)
}

// Matches reports whether secret redeems the challenge at now.
func (c *Challenge) Matches(secret string, now time.Time) bool {
	return c.ActiveAt(now) && c.Secret == secret
}

// Account is the aggregate root for the credential lifecycle.
// PasswordHash holds a bcrypt hash and never leaves the service.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsVerified   bool
	Verification *Challenge
	Reset        *Challenge
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountView is the sanitized projection of an Account that is safe to
// return to clients.
type AccountView struct {
	ID                        string     `json:"id"`
	Name                      string     `json:"name"`
	Email                     string     `json:"email"`
	IsVerified                bool       `json:"isVerified"`
	LastLogin                 *time.Time `json:"lastLogin"`
	VerificationCodeExpiresAt *time.Time `json:"verificationCodeExpiresAt,omitempty"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

// View returns the sanitized projection.
func (a *Account) View() AccountView {
	v := AccountView{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		IsVerified: a.IsVerified,
		LastLogin:  a.LastLogin,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Verification != nil {
		exp := a.Verification.ExpiresAt
		v.VerificationCodeExpiresAt = &exp
	}
	return v
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Verification != nil {
		v := *a.Verification
		cp.Verification = &v
	}
	if a.Reset != nil {
		r := *a.Reset
		cp.Reset = &r
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		cp.LastLogin = &t
	}
	return &cp
}
