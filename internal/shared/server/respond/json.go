package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// NoContent ends a request that has nothing to return, such as a delete.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Document writes a rendered body (markdown, HTML, an image). Rendered
// results are per-session and must not be cached by intermediaries.
func Document(c *gin.Context, contentType string, body []byte) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, body)
}
