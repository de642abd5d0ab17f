package web

import (
	"net/http"
	"strings"

	"github.com/avercourt/windlass/as2"
	"github.com/gin-gonic/gin"
)

// apJSON writes an ActivityStreams response with the global @context
// injected. Webfinger and nodeinfo bypass this and set their own
// content types.
func (s *Server) apJSON(c *gin.Context, status int, v any) {
	body, err := as2.WrapContext(v)
	if err != nil {
		s.log.Errorf("Web: failed to serialize response: %v", err)
		apError(c, http.StatusInternalServerError, "Serialization failed.")
		return
	}
	c.Data(status, as2.ContentType+"; charset=utf-8", body)
}

// apError writes a structured error body for client mistakes.
func apError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// wantsAS2 reports whether the request negotiates an ActivityStreams
// representation rather than HTML.
func wantsAS2(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/activity+json") ||
		strings.Contains(accept, "application/ld+json")
}

// wantsHTML reports whether a browser is asking for the page form.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
