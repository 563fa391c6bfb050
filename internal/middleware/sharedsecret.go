package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/formworks/intake-api/pkg/errors"
	"github.com/formworks/intake-api/pkg/response"
)

// QueryParam is the query parameter carrying the shared secret.
const QueryParam = "password"

// SharedSecret guards a route with the configured shared secret: absent
// parameter answers 401, mismatch answers 403. The comparison is constant
// time and the supplied value is never logged.
func SharedSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.Query(QueryParam)
		if supplied == "" {
			response.Error(c, appErrors.ErrAuthMissing)
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			response.Error(c, appErrors.ErrAuthFailed)
			c.Abort()
			return
		}
		c.Next()
	}
}
