package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-credential-lifecycle/internal/application"
	"github.com/oksasatya/go-credential-lifecycle/internal/domain/entity"
	"github.com/oksasatya/go-credential-lifecycle/internal/interface/middleware"
	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/response"
	"github.com/oksasatya/go-credential-lifecycle/pkg/validation"
)

type AccountHandler struct {
	Accounts *application.AccountService
	Verifier *application.VerificationManager
	Resets   *application.ResetManager
	Sessions *application.SessionIssuer
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewAccountHandler(
	accounts *application.AccountService,
	verifier *application.VerificationManager,
	resets *application.ResetManager,
	sessions *application.SessionIssuer,
	logger *logrus.Logger,
	cookieDomain string,
	cookieSecure bool,
) *AccountHandler {
	return &AccountHandler{
		Accounts: accounts,
		Verifier: verifier,
		Resets:   resets,
		Sessions: sessions,
		Logger:   logger,
		Cookies:  helpers.NewCookie(cookieDomain, cookieSecure),
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type loginUser struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	LastLogin  *time.Time `json:"lastLogin"`
	IsVerified bool       `json:"isVerified"`
}

type loginTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User   loginUser   `json:"user"`
	Tokens loginTokens `json:"tokens"`
}

// forgotResponse echoes the raw reset token for existing clients.
// TODO: drop ResetToken once clients follow the emailed link only.
type forgotResponse struct {
	ResetToken string `json:"resetToken"`
}

// failure describes how one route reports errors that are not classified
// by the application layer.
type failure struct {
	internal string
	notFound string
}

var (
	signupFailure = failure{internal: "Error in registration"}
	verifyFailure = failure{internal: "Error while verifying email"}
	loginFailure  = failure{internal: "An error occurred during login."}
	forgotFailure = failure{internal: "An error occurred while processing your request", notFound: "User not found or account not verified"}
	resetFailure  = failure{internal: "An error occurred while resetting the password."}
	deleteFailure = failure{internal: "An error occurred while deleting the user.", notFound: "User not found"}
	meFailure     = failure{internal: "An error occurred while loading the account.", notFound: "User not found"}
)

// bind decodes the JSON body. An empty body decodes to the zero value so
// that the field policy reports what is missing.
func (h *AccountHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

func (h *AccountHandler) fail(c *gin.Context, err error, f failure) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusBadRequest, verr.Message, nil)
	case errors.Is(err, application.ErrConflict):
		response.Error(c, http.StatusBadRequest, "Already Registered, please login", nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error(c, http.StatusBadRequest, "Invalid credentials or account not verified.", nil)
	case errors.Is(err, application.ErrInvalidOrExpiredCode):
		response.Error(c, http.StatusBadRequest, "Invalid or expired verification code", nil)
	case errors.Is(err, application.ErrInvalidOrExpiredToken):
		response.Error(c, http.StatusBadRequest, "Invalid or expired reset token.", nil)
	case errors.Is(err, application.ErrAccountNotFound) && f.notFound != "":
		response.Error(c, http.StatusNotFound, f.notFound, nil)
	case errors.Is(err, application.ErrTimeout):
		h.log(c, err, "request timed out")
		response.Error(c, http.StatusGatewayTimeout, "Request timed out", nil)
	default:
		h.log(c, err, "request failed")
		response.Error(c, http.StatusInternalServerError, f.internal, nil)
	}
}

func (h *AccountHandler) log(c *gin.Context, err error, msg string) {
	helpers.LogError(h.Logger, msg, err, logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
	})
}

func (h *AccountHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !h.bind(c, &req) {
		return
	}
	acc, err := h.Accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err, signupFailure)
		return
	}
	response.Success(c, http.StatusCreated, acc.View(), "User registered successfully")
}

func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !h.bind(c, &req) {
		return
	}
	acc, err := h.Verifier.ConsumeChallenge(c.Request.Context(), req.Code)
	if err != nil {
		h.fail(c, err, verifyFailure)
		return
	}
	response.Success(c, http.StatusOK, acc.View(), "Email verified successfully")
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err, loginFailure)
		return
	}
	pair := res.Tokens
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTTL, pair.RefreshToken, pair.RefreshTTL)

	v := res.Account.View()
	response.Success(c, http.StatusOK, loginResponse{
		User: loginUser{
			ID:         v.ID,
			Name:       v.Name,
			Email:      v.Email,
			LastLogin:  v.LastLogin,
			IsVerified: v.IsVerified,
		},
		Tokens: loginTokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	}, "Logged in successfully")
}

func (h *AccountHandler) Forgot(c *gin.Context) {
	var req forgotRequest
	if !h.bind(c, &req) {
		return
	}
	token, err := h.Resets.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err, forgotFailure)
		return
	}
	response.Success(c, http.StatusOK, forgotResponse{ResetToken: token}, "Password reset link sent to your email")
}

func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.Resets.PerformReset(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		h.fail(c, err, resetFailure)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password reset successful.")
}

func (h *AccountHandler) DeleteUser(c *gin.Context) {
	if err := h.Accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, deleteFailure)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "User deleted successfully")
}

// Logout clears the session cookies. Issued tokens stay valid until they expire.
func (h *AccountHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "Logged out successfully")
}

func (h *AccountHandler) Me(c *gin.Context) {
	acc, err := h.Accounts.Get(c.Request.Context(), c.GetString(middleware.CtxAccountIDKey))
	if err != nil {
		h.fail(c, err, meFailure)
		return
	}
	response.Success[entity.AccountView](c, http.StatusOK, acc.View(), "Account loaded")
}
