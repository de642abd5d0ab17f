package web

import (
	"github.com/avercourt/windlass/domain"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const maxActivitySize = 1 * 1024 * 1024 // 1MB

// Router builds the full route table. Federation paths are a fixed
// protocol contract; renaming them breaks remote servers.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(gzip.Gzip(gzip.DefaultCompression))
	g.SetHTMLTemplate(BlogTemplates)

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Public blog surface
	g.GET("/", s.handleBlogIndex)
	g.GET("/feed", s.handleFeed)
	g.GET("/:slug", s.handleBlogArticle)

	// Discovery
	g.GET("/.well-known/webfinger", s.handleWebfinger)
	g.GET("/.well-known/nodeinfo", s.handleNodeinfoDiscovery)
	g.GET("/nodeinfo/2.0", s.handleNodeinfo)

	// Stricter limits on the federation surface: 5 req/sec per IP and
	// a bounded activity size.
	apLimiter := NewRateLimiter(rate.Limit(5), 10)
	maxBodySize := MaxBytesMiddleware(maxActivitySize)

	site := g.Group("/actor", NoCacheMiddleware())
	site.GET("", s.handleSiteActor)
	site.GET("/outbox", s.handleSiteActorOutbox)

	api := g.Group("/api", NoCacheMiddleware())
	api.POST("/inbox", RateLimitMiddleware(apLimiter), maxBodySize, s.handleInbox)

	user := api.Group("/users/:username")
	user.GET("", s.handleUserActor)
	user.POST("/inbox", RateLimitMiddleware(apLimiter), maxBodySize, s.handleInbox)
	user.GET("/outbox", s.handleOutbox)
	user.GET("/followers", s.handleFollowers)
	user.GET("/following", s.handleFollowing)

	user.GET("/statuses/:id", s.handleStatus)
	user.GET("/statuses/:id/activity", s.handleStatusActivity)
	user.GET("/statuses/:id/likes", s.handleInteractionCollection(domain.InteractionLike))
	user.GET("/statuses/:id/shares", s.handleInteractionCollection(domain.InteractionAnnounce))
	user.GET("/statuses/:id/replies", s.handleReplyCollection)

	user.GET("/articles/:id", s.handleArticle)
	user.GET("/articles/:id/activity", s.handleArticleActivity)
	user.GET("/articles/:id/likes", s.handleInteractionCollection(domain.InteractionLike))
	user.GET("/articles/:id/shares", s.handleInteractionCollection(domain.InteractionAnnounce))
	user.GET("/articles/:id/replies", s.handleReplyCollection)

	return g
}
