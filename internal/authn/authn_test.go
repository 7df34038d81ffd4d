package authn

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret")

	token, err := ti.Issue("u-1", "Priya Patel", "priya@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "Priya Patel", claims.Name)
	assert.Equal(t, "priya@example.com", claims.Email)
}

func TestTokenExpiry(t *testing.T) {
	issued := time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)
	current := issued
	ti := NewTokenIssuer("test-secret")
	ti.now = func() time.Time { return current }

	token, err := ti.Issue("u-1", "Priya", "priya@example.com")
	require.NoError(t, err)

	current = issued.Add(TokenTTL - time.Minute)
	_, err = ti.Verify(token)
	assert.NoError(t, err)

	current = issued.Add(TokenTTL + time.Minute)
	_, err = ti.Verify(token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a").Issue("u-1", "Priya", "priya@example.com")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b").Verify(token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestStateStoreSingleUseAndExpiry(t *testing.T) {
	current := time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)
	ss := newStateStore()
	ss.now = func() time.Time { return current }

	state, err := ss.issue()
	require.NoError(t, err)
	assert.True(t, ss.consume(state))
	assert.False(t, ss.consume(state), "states are single use")

	state, err = ss.issue()
	require.NoError(t, err)
	current = current.Add(stateTTL + time.Second)
	assert.False(t, ss.consume(state), "expired states are refused")

	assert.False(t, ss.consume("never-issued"))
}

func TestCertTTL(t *testing.T) {
	assert.Equal(t, 22800*time.Second, certTTL("public, max-age=22800, must-revalidate"))
	assert.Equal(t, time.Hour, certTTL(""))
	assert.Equal(t, time.Hour, certTTL("no-cache"))
}

func TestMiddleware(t *testing.T) {
	ti := NewTokenIssuer("test-secret")
	token, err := ti.Issue("u-1", "Priya", "priya@example.com")
	require.NoError(t, err)

	e := echo.New()
	handler := Middleware(ti)(func(c echo.Context) error {
		claims := CurrentUser(c)
		require.NotNil(t, claims)
		return c.String(http.StatusOK, claims.Subject)
	})

	t.Run("valid token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, "u-1", rec.Body.String())
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := handler(e.NewContext(req, httptest.NewRecorder()))

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
		err := handler(e.NewContext(req, httptest.NewRecorder()))

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiter(rate.Every(time.Minute), 3)

	for i := 0; i < 3; i++ {
		assert.True(t, ll.Allow("10.0.0.1"), "attempt %d within burst", i+1)
	}
	assert.False(t, ll.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, ll.Allow("10.0.0.2"), "other clients unaffected")
}

func TestGoogleFlowDisabledWithoutConfig(t *testing.T) {
	assert.Nil(t, NewGoogleFlow(GoogleConfig{}, nil, nil, nil, nil))
	assert.False(t, GoogleConfig{ClientID: "id"}.Enabled())
	assert.True(t, GoogleConfig{ClientID: "id", ClientSecret: "s", RedirectURL: "http://x"}.Enabled())
}
