package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleInbox ingests one activity. The response is 202 regardless of
// what the activity turns out to be; processing failures are the
// engine's to log, not the remote peer's to retry.
func (s *Server) handleInbox(c *gin.Context) {
	if username := c.Param("username"); username != "" && username != s.conf.Conf.Username {
		apError(c, http.StatusNotFound, "User not found.")
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		apError(c, http.StatusBadRequest, "Could not read request body.")
		return
	}

	s.engine.HandleInbox(c.Request, body)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
