package middleware

import (
	"context"
	"errors"
	"net/http"

	"eduscan-api/pkg/logging"
	"eduscan-api/session"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "eduscan_session"
	SessionHeader = "X-Session-ID"
	sessionKey    = "session"
)

// Sessions loads the caller's session, creating one when the id is unknown,
// and saves it back after the handler runs. Store errors degrade to a fresh
// unsaved session.
func Sessions(store session.Store, defaultLanguage func(context.Context) string, logger *logging.StructuredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.GetHeader(SessionHeader)
		if id == "" {
			id, _ = c.Cookie(SessionCookie)
		}

		var sess *session.Context
		if id != "" {
			loaded, err := store.Load(ctx, id)
			switch {
			case err == nil:
				sess = loaded
			case !errors.Is(err, session.ErrNotFound):
				logger.Warn(ctx, "[SESSION] load failed", logging.Fields{"error": err.Error()})
			}
		}
		if sess == nil {
			sess = session.New(defaultLanguage(ctx))
		}

		c.Request = c.Request.WithContext(logging.WithSessionID(ctx, sess.ID))
		c.Set(sessionKey, sess)
		c.Header(SessionHeader, sess.ID)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)

		c.Next()

		if err := store.Save(c.Request.Context(), sess); err != nil {
			logger.Warn(c.Request.Context(), "[SESSION] save failed", logging.Fields{"error": err.Error()})
		}
	}
}

// GetSession returns the session Sessions attached, or a throwaway one when
// the middleware did not run.
func GetSession(c *gin.Context) *session.Context {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Context); ok {
			return s
		}
	}
	return session.New("English")
}
