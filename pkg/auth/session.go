package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the session cookie.
const SessionName = "zenarog_session"

// Session value keys.
const (
	sessionKeyUserID    = "uid"
	sessionKeyEmail     = "email"
	sessionKeyName      = "name"
	sessionKeyPicture   = "picture"
	sessionKeyExpiresAt = "exp"
)

// ErrNoSession is returned when the request carries no valid session.
var ErrNoSession = errors.New("no session")

// SessionManager stores the signed-in user in a signed, HttpOnly cookie.
type SessionManager struct {
	store  *sessions.CookieStore
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionManager creates a session manager.
//
// The secret can be any passphrase; it is SHA-256 hashed to derive the
// signing key. It must be the same across restarts and instances.
func NewSessionManager(secret string, maxAge time.Duration, cookie CookieSettings) *SessionManager {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.MaxAge(int(maxAge.Seconds()))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cookie.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{
		store:  store,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Start writes a session cookie for the user described by claims.
func (m *SessionManager) Start(w http.ResponseWriter, r *http.Request, claims *Claims) error {
	session, err := m.store.New(r, SessionName)
	if err != nil && session == nil {
		return fmt.Errorf("create session: %w", err)
	}

	session.Values[sessionKeyUserID] = claims.Subject
	session.Values[sessionKeyEmail] = claims.Email
	session.Values[sessionKeyName] = claims.Name
	session.Values[sessionKeyPicture] = claims.Picture
	session.Values[sessionKeyExpiresAt] = m.now().Add(m.maxAge).Unix()

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Current returns the claims stored in the request's session cookie.
// Missing, tampered or expired sessions yield ErrNoSession.
func (m *SessionManager) Current(r *http.Request) (*Claims, error) {
	if _, err := r.Cookie(SessionName); err != nil {
		return nil, ErrNoSession
	}

	session, err := m.store.Get(r, SessionName)
	if err != nil || session.IsNew {
		return nil, ErrNoSession
	}

	userID, _ := session.Values[sessionKeyUserID].(string)
	expiresAt, _ := session.Values[sessionKeyExpiresAt].(int64)
	if userID == "" || m.now().Unix() >= expiresAt {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	claims.Subject = userID
	claims.Email, _ = session.Values[sessionKeyEmail].(string)
	claims.Name, _ = session.Values[sessionKeyName].(string)
	claims.Picture, _ = session.Values[sessionKeyPicture].(string)
	return claims, nil
}

// End expires the session cookie.
func (m *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	if session == nil {
		return nil
	}
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
