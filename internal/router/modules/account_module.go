package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-credential-lifecycle/internal/interface/http"
	"github.com/oksasatya/go-credential-lifecycle/internal/interface/middleware"
)

// AccountModule wires the credential lifecycle routes under /auth.
// Public: signup, verify-email, login, forgot, reset-password/:token, logout
// Protected: GET /me (access token cookie or Bearer header)
// DELETE /deleteUser/:id is kept public for compatibility with existing clients.
type AccountModule struct {
	Handler   *handlers.AccountHandler
	Auth      middleware.Authenticator
	Redis     *redis.Client
	PerMinute int
	Allow     middleware.AllowFunc
}

func NewAccountModule(h *handlers.AccountHandler, auth middleware.Authenticator, rdb *redis.Client, perMinute int, allow middleware.AllowFunc) *AccountModule {
	return &AccountModule{Handler: h, Auth: auth, Redis: rdb, PerMinute: perMinute, Allow: allow}
}

func (m *AccountModule) Name() string { return "account" }

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	limit := middleware.RateLimit(m.Redis, m.PerMinute, time.Minute, middleware.KeyByIPAndPath(), m.Allow)

	auth := rg.Group("/auth")
	auth.POST("/signup", limit, m.Handler.Signup)
	auth.POST("/verify-email", limit, m.Handler.VerifyEmail)
	auth.POST("/login", limit, m.Handler.Login)
	auth.POST("/forgot", limit, m.Handler.Forgot)
	auth.POST("/reset-password/:token", limit, m.Handler.ResetPassword)
	auth.DELETE("/deleteUser/:id", limit, m.Handler.DeleteUser)
	auth.POST("/logout", m.Handler.Logout)

	protected := auth.Group("/")
	protected.Use(
		middleware.AccessToken(m.Auth),
		middleware.RateLimit(m.Redis, m.PerMinute*6, time.Minute, middleware.KeyByAccountID(), nil),
	)
	{
		protected.GET("/me", m.Handler.Me)
	}
}
