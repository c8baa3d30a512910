package csrf

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_IssueVerify(t *testing.T) {
	guard := New([]byte("csrf-secret"), time.Hour, false)

	token, err := guard.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, guard.Verify(token, "user-1"))

	other, err := guard.Issue("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "every token carries a fresh nonce")
}

func TestGuard_Verify(t *testing.T) {
	guard := New([]byte("csrf-secret"), time.Hour, false)

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, guard.Verify("", ""), ErrMissingToken)
	})

	t.Run("tampered", func(t *testing.T) {
		token, err := guard.Issue("")
		require.NoError(t, err)
		assert.ErrorIs(t, guard.Verify(token+"x", ""), ErrInvalidToken)
	})

	t.Run("signed with another key", func(t *testing.T) {
		token, err := New([]byte("other-secret"), time.Hour, false).Issue("")
		require.NoError(t, err)
		assert.ErrorIs(t, guard.Verify(token, ""), ErrInvalidToken)
	})

	t.Run("issued for another user", func(t *testing.T) {
		token, err := guard.Issue("user-1")
		require.NoError(t, err)
		assert.ErrorIs(t, guard.Verify(token, "user-2"), ErrInvalidToken)
	})

	t.Run("anonymous token used by a signed in user", func(t *testing.T) {
		token, err := guard.Issue("")
		require.NoError(t, err)
		assert.ErrorIs(t, guard.Verify(token, "user-1"), ErrInvalidToken)
	})
}

func TestGuard_Cookie(t *testing.T) {
	guard := New([]byte("csrf-secret"), 0, true)

	cookie := guard.Cookie("token")
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, "token", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, int(DefaultMaxAge.Seconds()), cookie.MaxAge)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}
