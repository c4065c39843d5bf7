package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names for the session pair.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetPair writes both session cookies with Max-Age equal to each token's TTL.
func (m *Manager) SetPair(c *gin.Context, access string, attl time.Duration, refresh string, rttl time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookie, access, maxAge(attl), "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshCookie, refresh, maxAge(rttl), "/", m.Domain, m.Secure, true)
}

// Clear expires both session cookies with the attributes used to set them.
func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookie, "", -1, "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", m.Domain, m.Secure, true)
}

// maxAge converts a lifetime to whole seconds. A lifetime under one second
// expires the cookie at once rather than leaving it a session cookie.
func maxAge(ttl time.Duration) int {
	sec := int(ttl / time.Second)
	if sec <= 0 {
		return -1
	}
	return sec
}
