package router

import (
	"github.com/oksasatya/go-credential-lifecycle/internal/application"
	"github.com/oksasatya/go-credential-lifecycle/internal/container"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/repository"
	pginfra "github.com/oksasatya/go-credential-lifecycle/internal/infrastructure/postgres"
	"github.com/oksasatya/go-credential-lifecycle/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-credential-lifecycle/internal/interface/http"
	"github.com/oksasatya/go-credential-lifecycle/internal/interface/middleware"
	"github.com/oksasatya/go-credential-lifecycle/internal/router/modules"
)

type AccountModuleDeps struct {
	Repo     repository.AccountRepository
	Accounts *application.AccountService
	Verifier *application.VerificationManager
	Resets   *application.ResetManager
	Sessions *application.SessionIssuer
	Handler  *handlers.AccountHandler
}

// BuildAccountDeps wires the services over repo using the container's
// singletons. Extra options are applied after the defaults.
func BuildAccountDeps(repo repository.AccountRepository, extra ...application.Option) AccountModuleDeps {
	cfg := container.GetConfig()
	opts := []application.Option{
		application.WithLogger(container.GetLogger()),
		application.WithStoreTimeout(cfg.StoreTimeout),
	}
	if n := container.GetNotifier(); n != nil {
		opts = append(opts, application.WithNotifier(n))
	}
	if idx := search.NewAccountIndex(container.GetES(), cfg.ESAccountsIndex); idx != nil {
		opts = append(opts, application.WithIndexer(idx))
	}
	opts = append(opts, extra...)

	verifier := application.NewVerificationManager(repo, opts...)
	deps := AccountModuleDeps{
		Repo:     repo,
		Verifier: verifier,
		Accounts: application.NewAccountService(repo, verifier, opts...),
		Resets:   application.NewResetManager(repo, cfg.ResetPasswordURL, opts...),
		Sessions: application.NewSessionIssuer(repo, container.GetJWT(), opts...),
	}
	deps.Handler = handlers.NewAccountHandler(
		deps.Accounts,
		deps.Verifier,
		deps.Resets,
		deps.Sessions,
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.IsProduction(),
	)
	return deps
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := BuildAccountDeps(pginfra.NewAccountRepository(container.GetPGPool()))
	AddAccountModule(r, deps)
}

// AddAccountModule registers the account routes backed by deps.
func AddAccountModule(r *Registry, deps AccountModuleDeps) {
	cfg := container.GetConfig()
	var allow middleware.AllowFunc
	if cfg.RateLimitAllowPrivate {
		allow = middleware.AllowPrivateIP()
	}
	r.Add(modules.NewAccountModule(deps.Handler, deps.Sessions, container.GetRedis(), cfg.RateLimitPerMinute, allow))
}
