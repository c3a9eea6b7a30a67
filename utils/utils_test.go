package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewTokenSigner("secret", time.Hour)
	token, exp, err := s.Generate(7, "alice", true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin)

	_, err = NewTokenSigner("other", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	s := NewTokenSigner("secret", time.Hour)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := s.Generate(1, "bob", false)
	require.NoError(t, err)

	_, err = s.Parse(token)
	assert.Error(t, err)
}

func TestPasswordRules(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("12345"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", 73)), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("123456"))

	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "<p>ok</p>", Sanitize(`<p onclick="x()">ok</p><script>alert(1)</script>`))
	assert.Equal(t, "title", SanitizeText("  <b>title</b> "))
}

func TestBlacklistInMemory(t *testing.T) {
	b := NewTokenBlacklist(nil)
	ctx := context.Background()

	b.Revoke(ctx, "t1", time.Now().Add(time.Minute))
	b.Revoke(ctx, "t2", time.Now().Add(-time.Minute))
	assert.True(t, b.IsRevoked(ctx, "t1"))
	assert.False(t, b.IsRevoked(ctx, "t2"))
	assert.False(t, b.IsRevoked(ctx, "t3"))
}

func TestCacheWithoutRedis(t *testing.T) {
	c := NewCache(nil)
	ctx := context.Background()
	assert.False(t, c.Enabled())

	c.SetJSON(ctx, "k", map[string]string{"a": "b"}, 0)
	var out map[string]string
	assert.False(t, c.GetJSON(ctx, "k", &out))
	c.Delete(ctx, "k")

	var nilCache *Cache
	assert.False(t, nilCache.GetJSON(ctx, "k", &out))
}

func TestCaptchaInMemory(t *testing.T) {
	c := NewCaptcha(nil)
	id, img, err := c.Generate()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(img, "data:image/"))
	assert.False(t, c.Verify(id, ""))
	assert.False(t, c.Verify("", "123"))
}
