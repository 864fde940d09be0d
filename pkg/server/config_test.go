package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, ":8080", c.Address)
	assert.Equal(t, 30*time.Second, c.ShutdownTimeout)
	assert.Zero(t, c.MaxSessions)
	require.NotNil(t, c.Session)
	assert.Equal(t, 100, c.Session.FlushBudget)
}

func TestConfigClone(t *testing.T) {
	c := DefaultConfig()
	clone := c.Clone()

	clone.Address = ":9090"
	clone.Session.FlushBudget = 1

	assert.Equal(t, ":8080", c.Address)
	assert.Equal(t, 100, c.Session.FlushBudget)
}

func TestConfigChaining(t *testing.T) {
	c := DefaultConfig().WithAddress(":3000").WithMaxSessions(10)

	assert.Equal(t, ":3000", c.Address)
	assert.Equal(t, 10, c.MaxSessions)
}

func TestSameOriginCheck(t *testing.T) {
	req := func(host, origin string) *http.Request {
		r, err := http.NewRequest(http.MethodGet, "http://"+host+"/live", nil)
		require.NoError(t, err)
		r.Host = host
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, SameOriginCheck(req("example.com", "http://example.com")))
	assert.True(t, SameOriginCheck(req("example.com", "")), "missing origin is allowed")
	assert.False(t, SameOriginCheck(req("example.com", "http://evil.com")))
	assert.False(t, SameOriginCheck(req("example.com", "::bad::")))

	assert.True(t, AllowAllOrigins(req("example.com", "http://evil.com")))
}
