package web

import (
	"net/http"
	"strings"

	"github.com/avercourt/windlass/as2"
	"github.com/gin-gonic/gin"
)

type jrdLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type,omitempty"`
	Href string `json:"href,omitempty"`
}

type jrd struct {
	Subject string    `json:"subject"`
	Aliases []string  `json:"aliases,omitempty"`
	Links   []jrdLink `json:"links"`
}

// handleWebfinger answers acct: lookups for the configured user and
// for the instance's Application actor.
func (s *Server) handleWebfinger(c *gin.Context) {
	resource := c.Query("resource")
	if resource == "" {
		apError(c, http.StatusBadRequest, "Missing resource parameter.")
		return
	}

	acct := strings.TrimPrefix(resource, "acct:")
	acct = strings.TrimSuffix(acct, "@"+s.conf.Conf.PublicHost)

	host := s.conf.Conf.PublicHost
	username := s.conf.Conf.Username

	var doc *jrd
	switch acct {
	case username, s.conf.ActorURL():
		doc = &jrd{
			Subject: "acct:" + username + "@" + host,
			Aliases: []string{s.conf.BaseURL(), s.conf.ActorURL()},
			Links: []jrdLink{
				{Rel: "self", Type: as2.ContentType, Href: s.conf.ActorURL()},
				{Rel: "http://webfinger.net/rel/profile-page", Type: "text/html", Href: s.conf.BaseURL()},
			},
		}
	case host, s.conf.SiteActorURL():
		doc = &jrd{
			Subject: "acct:" + host + "@" + host,
			Aliases: []string{s.conf.SiteActorURL()},
			Links: []jrdLink{
				{Rel: "self", Type: as2.ContentType, Href: s.conf.SiteActorURL()},
			},
		}
	default:
		apError(c, http.StatusNotFound, "Resource not found.")
		return
	}

	c.Header("Content-Type", as2.ContentTypeJRD+"; charset=utf-8")
	c.JSON(http.StatusOK, doc)
}
