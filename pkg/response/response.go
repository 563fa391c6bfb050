package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/formworks/intake-api/pkg/errors"
)

// Error answers a request with the status of the underlying typed error.
// Server-side failures are collapsed to a generic body; internal error
// detail never reaches the client.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")

	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		message = "Internal Error"
	}
	c.String(appErr.Status, message)
}

// HTML sends a rendered page.
func HTML(c *gin.Context, status int, body []byte) {
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", body)
}

// Text sends a short plain-text acknowledgment.
func Text(c *gin.Context, status int, message string) {
	c.Header("Cache-Control", "no-store")
	c.String(status, message)
}
