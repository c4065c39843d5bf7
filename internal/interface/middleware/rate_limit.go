package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-credential-lifecycle/pkg/response"
)

const msgTooManyRequests = "Too many requests, please try again later."

// ipFromCtx extracts the client IP from Gin context, falling back to "unknown"
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(CtxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// routeOf prefers the registered route pattern so that path parameters
// such as reset tokens share one counter.
func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

// KeyByIPAndPath limits each client IP separately on every route.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:auth:" + routeOf(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByAccountID limits authenticated routes per account, falling back to
// the client IP before authentication has run.
func KeyByAccountID() KeyFunc {
	return func(c *gin.Context) string {
		if id := c.GetString(CtxAccountIDKey); id != "" {
			return "rl:account:" + id
		}
		return "rl:account:anon:ip:" + ipFromCtx(c)
	}
}

// AllowFunc returns true when the request bypasses the limit.
type AllowFunc func(*gin.Context) bool

// fixedWindow increments the counter and returns it with the window's
// remaining lifetime in one round trip.
var fixedWindow = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// quota is the outcome of one counted request.
type quota struct {
	limit   int
	count   int
	resetIn time.Duration
}

func (q quota) exceeded() bool { return q.count > q.limit }

func (q quota) remaining() int {
	if q.count >= q.limit {
		return 0
	}
	return q.limit - q.count
}

// resetSeconds rounds up so a client never retries inside the window.
func (q quota) resetSeconds() int {
	if q.resetIn <= 0 {
		return 0
	}
	return int(math.Ceil(q.resetIn.Seconds()))
}

func (q quota) writeHeaders(c *gin.Context) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(q.limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(q.remaining()))
	c.Header("X-RateLimit-Reset", strconv.Itoa(q.resetSeconds()))
	if q.exceeded() && q.resetSeconds() > 0 {
		c.Header("Retry-After", strconv.Itoa(q.resetSeconds()))
	}
}

// RateLimit counts requests per key in fixed windows stored in Redis.
// A nil client disables limiting, and Redis errors fail open.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		res, err := fixedWindow.Run(c.Request.Context(), rdb, []string{keyFn(c)}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			c.Next()
			return
		}
		q := quota{limit: max, count: int(res[0]), resetIn: time.Duration(res[1]) * time.Millisecond}
		q.writeHeaders(c)

		if q.exceeded() {
			response.Error(c, http.StatusTooManyRequests, msgTooManyRequests, nil)
			return
		}
		c.Next()
	}
}
