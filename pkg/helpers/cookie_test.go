package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	res := w.Result()
	defer res.Body.Close()
	out := make(map[string]*http.Cookie)
	for _, c := range res.Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestCookieManager_SetPair(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NewCookie("auth.test", true).SetPair(c, "a-token", 15*time.Minute, "r-token", time.Hour)

	got := cookiesByName(w)
	require.Contains(t, got, AccessCookie)
	require.Contains(t, got, RefreshCookie)

	access := got[AccessCookie]
	assert.Equal(t, "a-token", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 15*60, access.MaxAge)

	assert.Equal(t, "r-token", got[RefreshCookie].Value)
	assert.Equal(t, 3600, got[RefreshCookie].MaxAge)
}

func TestCookieManager_Clear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NewCookie("", false).Clear(c)

	got := cookiesByName(w)
	for _, name := range []string{AccessCookie, RefreshCookie} {
		require.Contains(t, got, name)
		assert.Empty(t, got[name].Value)
		assert.Less(t, got[name].MaxAge, 0, "Max-Age=0 parses as negative")
		assert.Equal(t, http.SameSiteStrictMode, got[name].SameSite)
	}
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 900, maxAge(15*time.Minute))
	assert.Equal(t, 1, maxAge(1500*time.Millisecond))
	assert.Equal(t, -1, maxAge(500*time.Millisecond))
	assert.Equal(t, -1, maxAge(0))
}
