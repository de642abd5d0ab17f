package web

import (
	"net/http"

	"github.com/avercourt/windlass/as2"
	"github.com/avercourt/windlass/util"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleUserActor(c *gin.Context) {
	if c.Param("username") != s.conf.Conf.Username {
		apError(c, http.StatusNotFound, "User not found.")
		return
	}

	actorURL := s.conf.ActorURL()
	displayName := s.conf.Conf.DisplayName
	if displayName == "" {
		displayName = s.conf.Conf.Username
	}

	actor := &as2.Actor{
		ID:                        actorURL,
		Type:                      as2.TypePerson,
		PreferredUsername:         s.conf.Conf.Username,
		Name:                      displayName,
		Summary:                   util.RenderContentHTML(s.conf.Conf.Bio),
		URL:                       s.conf.BaseURL(),
		Inbox:                     actorURL + "/inbox",
		Outbox:                    actorURL + "/outbox",
		Followers:                 actorURL + "/followers",
		Following:                 actorURL + "/following",
		Discoverable:              true,
		ManuallyApprovesFollowers: false,
		PublicKey: &as2.PublicKey{
			ID:           actorURL + "#" + util.KeyFragment(s.keys.User.PublicPEM),
			Owner:        actorURL,
			PublicKeyPem: s.keys.User.PublicPEM,
		},
		Endpoints: &as2.Endpoints{
			SharedInbox: s.conf.BaseURL() + "/api/inbox",
		},
	}

	s.apJSON(c, http.StatusOK, actor)
}

// handleSiteActor serves the instance-level Application actor. It signs
// nothing user-visible but gives other servers an identity to address
// for server-to-server concerns.
func (s *Server) handleSiteActor(c *gin.Context) {
	siteURL := s.conf.SiteActorURL()

	actor := &as2.Actor{
		ID:                        siteURL,
		Type:                      as2.TypeApplication,
		PreferredUsername:         s.conf.Conf.PublicHost,
		Name:                      s.conf.Conf.SiteTitle,
		URL:                       s.conf.BaseURL(),
		Inbox:                     s.conf.BaseURL() + "/api/inbox",
		Outbox:                    siteURL + "/outbox",
		Discoverable:              false,
		ManuallyApprovesFollowers: true,
		PublicKey: &as2.PublicKey{
			ID:           siteURL + "#" + util.KeyFragment(s.keys.Site.PublicPEM),
			Owner:        siteURL,
			PublicKeyPem: s.keys.Site.PublicPEM,
		},
		Endpoints: &as2.Endpoints{
			SharedInbox: s.conf.BaseURL() + "/api/inbox",
		},
	}

	s.apJSON(c, http.StatusOK, actor)
}

// handleSiteActorOutbox keeps the outbox link on the Application actor
// honest. The site actor never posts.
func (s *Server) handleSiteActorOutbox(c *gin.Context) {
	s.apJSON(c, http.StatusOK, as2.NewOrderedCollection(s.conf.SiteActorURL()+"/outbox", 0))
}
