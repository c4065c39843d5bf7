package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRedisClient_Options(t *testing.T) {
	rdb := NewRedisClient("localhost:6379", "pw", 2)
	t.Cleanup(func() { _ = rdb.Close() })

	opts := rdb.Options()
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.LessOrEqual(t, opts.ReadTimeout, time.Second)
}
