package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-credential-lifecycle/config"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
	pginfra "github.com/oksasatya/go-credential-lifecycle/internal/infrastructure/postgres"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/validation"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// seed creates or refreshes a verified demo account so login works without
// going through email verification.
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	name := getenv("SEED_NAME", "Demo User")
	email := getenv("SEED_EMAIL", "demo@example.com")
	password := getenv("SEED_PASSWORD", "Demo123!@")
	if err := validation.ValidateRegistration(name, email, password); err != nil {
		logger.Fatalf("invalid seed account: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pginfra.Migrate(cfg.PostgresDSN(), logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}
	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := pginfra.NewAccountRepository(pool)

	hash, err := helpers.HashPassword(password)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}

	verified := true
	acc, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		acc, err = repo.Update(ctx, acc.ID, repository.AccountUpdate{
			PasswordHash:      &hash,
			IsVerified:        &verified,
			ClearVerification: true,
			ClearReset:        true,
		})
	case errors.Is(err, repository.ErrNotFound):
		acc = &entity.Account{Name: name, Email: email, PasswordHash: hash, IsVerified: true}
		err = repo.Create(ctx, acc)
	}
	if err != nil {
		logger.Fatalf("failed to seed account: %v", err)
	}
	logger.WithField("account_id", acc.ID).Infof("seeded verified account email=%s password=%s", email, password)
}
