package web

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/avercourt/windlass/as2"
	"github.com/avercourt/windlass/util"
	"github.com/gin-gonic/gin"
)

const (
	followersPageSize    = 100
	followersPageSizeMax = 200
)

// handleFollowers serves the follower collection, newest first, with
// an optional domain filter. The filtered view is what a remote server
// fetches when its Collection-Synchronization digest disagrees with
// ours.
func (s *Server) handleFollowers(c *gin.Context) {
	if c.Param("username") != s.conf.Conf.Username {
		apError(c, http.StatusNotFound, "User not found.")
		return
	}

	collectionURI := s.conf.ActorURL() + "/followers"
	domainFilter := c.Query("domain")

	if c.Query("page") == "" && c.Query("after") == "" {
		err, total := s.db.CountFollowers(domainFilter)
		if err != nil {
			s.log.Errorf("Web: follower count failed: %v", err)
			apError(c, http.StatusInternalServerError, "Storage failure.")
			return
		}
		collection := as2.NewOrderedCollection(pageID(c, collectionURI), total)
		collection.First = collectionURI + "?page=true&after=" + util.MaxULID + domainParam(domainFilter)
		s.apJSON(c, http.StatusOK, collection)
		return
	}

	after := c.Query("after")
	if after == "" {
		after = util.MaxULID
	} else if _, err := util.ParseULID(after); err != nil {
		apError(c, http.StatusBadRequest, "Invalid after cursor.")
		return
	}

	limit := followersPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, followersPageSizeMax)
		}
	}

	err, followers := s.db.ReadFollowersOlderThan(after, limit, domainFilter)
	if err != nil {
		s.log.Errorf("Web: follower page read failed: %v", err)
		apError(c, http.StatusInternalServerError, "Storage failure.")
		return
	}

	page := as2.NewOrderedCollectionPage(pageID(c, collectionURI), collectionURI)
	if followers != nil && len(*followers) > 0 {
		oldest := (*followers)[len(*followers)-1]
		page.Next = collectionURI + "?page=true&after=" + oldest.UID + domainParam(domainFilter)
		for _, f := range *followers {
			page.OrderedItems = append(page.OrderedItems, as2.LinkNode(f.ActorURI))
		}
	}

	s.apJSON(c, http.StatusOK, page)
}

// handleFollowing lists the actors we follow back. The set lives in
// the kv store under the reciprocal-follow prefix and is small, so one
// page carries it whole.
func (s *Server) handleFollowing(c *gin.Context) {
	if c.Param("username") != s.conf.Conf.Username {
		apError(c, http.StatusNotFound, "User not found.")
		return
	}

	collectionURI := s.conf.ActorURL() + "/following"

	err, pairs := s.db.ReadKvByPrefix("recip:")
	if err != nil {
		s.log.Errorf("Web: following read failed: %v", err)
		apError(c, http.StatusInternalServerError, "Storage failure.")
		return
	}

	var uris []string
	for key := range pairs {
		uris = append(uris, strings.TrimPrefix(key, "recip:"))
	}
	sort.Strings(uris)

	if c.Query("page") == "" {
		collection := as2.NewOrderedCollection(collectionURI, len(uris))
		collection.First = collectionURI + "?page=true"
		s.apJSON(c, http.StatusOK, collection)
		return
	}

	page := as2.NewOrderedCollectionPage(pageID(c, collectionURI), collectionURI)
	for _, uri := range uris {
		page.OrderedItems = append(page.OrderedItems, as2.LinkNode(uri))
	}
	s.apJSON(c, http.StatusOK, page)
}

func domainParam(domainFilter string) string {
	if domainFilter == "" {
		return ""
	}
	return "&domain=" + url.QueryEscape(domainFilter)
}
