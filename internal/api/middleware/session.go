package middleware

import (
	"net/http"

	"github.com/Conceptual-Machines/bidrohi/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionCookieName = "bidrohi_session"
	sessionIDKey      = "id"
	sessionKeyLength  = 32
)

// NewCookieStore builds the signed cookie store that carries session ids.
// An empty secret gets a random key, so sessions do not survive a restart.
func NewCookieStore(secret string, maxAgeSeconds int, secure bool) *sessions.CookieStore {
	key := []byte(secret)
	if secret == "" {
		logger.Warn("SESSION_SECRET not set, using a random key", nil)
		key = securecookie.GenerateRandomKey(sessionKeyLength)
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Sessions makes sure every request carries a session id in its cookie
// and exposes it as "session_id" in the gin context.
func Sessions(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, sessionCookieName)
		if err != nil {
			// Tampered or stale cookie: start over with a fresh session
			logger.Debug("Discarding invalid session cookie", logger.Fields{"error": err.Error()})
		}

		id, _ := sess.Values[sessionIDKey].(string)
		if id == "" {
			id = uuid.New().String()
			sess.Values[sessionIDKey] = id
			if err := sess.Save(c.Request, c.Writer); err != nil {
				logger.Error("Failed to save session cookie", err, logger.Fields{
					"request_id": c.GetString("request_id"),
				})
			}
		}

		c.Set("session_id", id)
		c.Next()
	}
}

// GetSessionID returns the session id set by Sessions
func GetSessionID(c *gin.Context) (string, bool) {
	id := c.GetString("session_id")
	return id, id != ""
}
