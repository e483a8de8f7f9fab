package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions() *SessionManager {
	return NewSessionManager("test-secret", time.Hour, CookieSettings{Secure: false})
}

// roundTrip copies the cookies set on rec into a fresh request.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionManager_StartAndCurrent(t *testing.T) {
	m := newTestSessions()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil), validClaims()))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	claims, err := m.Current(roundTrip(rec))
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "Test User", claims.Name)
}

func TestSessionManager_NoCookie(t *testing.T) {
	_, err := newTestSessions().Current(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_RejectsForeignSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, newTestSessions().Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), validClaims()))

	other := NewSessionManager("another-secret", time.Hour, CookieSettings{})
	_, err := other.Current(roundTrip(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_Expired(t *testing.T) {
	m := newTestSessions()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), validClaims()))

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := m.Current(roundTrip(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionManager_End(t *testing.T) {
	m := newTestSessions()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(rec, httptest.NewRequest(http.MethodPost, "/", nil), validClaims()))

	endRec := httptest.NewRecorder()
	require.NoError(t, m.End(endRec, roundTrip(rec)))

	cookies := endRec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
