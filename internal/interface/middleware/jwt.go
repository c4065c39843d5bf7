package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-credential-lifecycle/pkg/helpers"
	"github.com/oksasatya/go-credential-lifecycle/pkg/response"
)

const CtxAccountIDKey = "accountID"

// Authenticator resolves an access token to an account id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// AccessToken reads the accessToken cookie, or a Bearer header when the
// cookie is absent, and injects the account id into the context.
func AccessToken(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.AccessCookie)
		if err != nil || token == "" {
			token = bearer(c.GetHeader("Authorization"))
		}
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		id, err := auth.Authenticate(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}
		c.Set(CtxAccountIDKey, id)
		c.Next()
	}
}

func bearer(h string) string {
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
