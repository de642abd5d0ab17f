package web

import (
	"net/http"

	"github.com/avercourt/windlass/util"
	"github.com/gin-gonic/gin"
)

const nodeinfoSchema = "http://nodeinfo.diaspora.software/ns/schema/2.0"

func (s *Server) handleNodeinfoDiscovery(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"links": []gin.H{
			{"rel": nodeinfoSchema, "href": s.conf.BaseURL() + "/nodeinfo/2.0"},
		},
	})
}

func (s *Server) handleNodeinfo(c *gin.Context) {
	err, posts := s.db.CountPublishedArticles()
	if err != nil {
		s.log.Errorf("Web: nodeinfo post count failed: %v", err)
		posts = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"version": "2.0",
		"software": gin.H{
			"name":    util.Name,
			"version": util.GetVersion(),
		},
		"protocols": []string{"activitypub"},
		"services": gin.H{
			"inbound":  []string{},
			"outbound": []string{},
		},
		"openRegistrations": false,
		"usage": gin.H{
			"users": gin.H{
				"total":          1,
				"activeMonth":    1,
				"activeHalfyear": 1,
			},
			"localPosts": posts,
		},
		"metadata": gin.H{
			"nodeName": s.conf.Conf.SiteTitle,
		},
	})
}
