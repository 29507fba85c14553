package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextSessionID is the gin context key carrying the session id.
const ContextSessionID = "session_id"

// Session assigns each browser an opaque session id via cookie. Workflow
// state is partitioned by this id; there is no user account behind it.
func Session(cookieName string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil || id == "" {
			id = uuid.New().String()
			c.SetCookie(cookieName, id, int(ttl.Seconds()), "/", "", false, true)
		}
		c.Set(ContextSessionID, id)
		c.Next()
	}
}
