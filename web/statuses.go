package web

import (
	"net/http"

	"github.com/avercourt/windlass/as2"
	"github.com/avercourt/windlass/domain"
	"github.com/avercourt/windlass/util"
	"github.com/gin-gonic/gin"
)

// loadPublishedArticle resolves the :id path segment to a published
// article, answering 404 itself when it cannot.
func (s *Server) loadPublishedArticle(c *gin.Context) *domain.Article {
	if c.Param("username") != s.conf.Conf.Username {
		apError(c, http.StatusNotFound, "User not found.")
		return nil
	}

	uid, err := util.ParseULID(c.Param("id"))
	if err != nil {
		apError(c, http.StatusNotFound, "Article not found.")
		return nil
	}

	err, article := s.db.ReadArticleByUID(uid)
	if err != nil || article == nil || !article.Published {
		apError(c, http.StatusNotFound, "Article not found.")
		return nil
	}
	return article
}

// handleStatus serves the Note rendering of an article. Browsers are
// redirected to the public page instead.
func (s *Server) handleStatus(c *gin.Context) {
	article := s.loadPublishedArticle(c)
	if article == nil {
		return
	}
	if wantsHTML(c) && !wantsAS2(c) {
		c.Redirect(http.StatusFound, s.conf.BaseURL()+"/"+article.Slug)
		return
	}
	s.apJSON(c, http.StatusOK, s.engine.NoteObject(article))
}

func (s *Server) handleStatusActivity(c *gin.Context) {
	article := s.loadPublishedArticle(c)
	if article == nil {
		return
	}
	create := as2.NewCreate(s.conf.ActorURL(), s.engine.NoteObject(article))
	s.apJSON(c, http.StatusOK, create)
}

// handleArticle serves the long-form Article rendering.
func (s *Server) handleArticle(c *gin.Context) {
	article := s.loadPublishedArticle(c)
	if article == nil {
		return
	}
	if wantsHTML(c) && !wantsAS2(c) {
		c.Redirect(http.StatusFound, s.conf.BaseURL()+"/"+article.Slug)
		return
	}
	s.apJSON(c, http.StatusOK, s.engine.ArticleObject(article))
}

func (s *Server) handleArticleActivity(c *gin.Context) {
	article := s.loadPublishedArticle(c)
	if article == nil {
		return
	}
	create := as2.NewCreate(s.conf.ActorURL(), s.engine.ArticleObject(article))
	s.apJSON(c, http.StatusOK, create)
}

// handleInteractionCollection serves the likes/shares counters.
// Remote servers fetch these to display counts under a boosted post.
func (s *Server) handleInteractionCollection(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		article := s.loadPublishedArticle(c)
		if article == nil {
			return
		}

		err, total := s.db.CountInteractions(article.UID, kind)
		if err != nil {
			s.log.Errorf("Web: interaction count failed: %v", err)
			apError(c, http.StatusInternalServerError, "Storage failure.")
			return
		}

		s.apJSON(c, http.StatusOK, &as2.Collection{
			ID:         pageID(c, s.conf.BaseURL()+c.Request.URL.Path),
			Type:       as2.TypeCollection,
			TotalItems: total,
		})
	}
}

// handleReplyCollection is a stub: replies are not ingested, so the
// collection and its single page are always empty. Crawlers still
// follow the first link, so the page form has to exist.
func (s *Server) handleReplyCollection(c *gin.Context) {
	article := s.loadPublishedArticle(c)
	if article == nil {
		return
	}

	collectionURI := s.conf.BaseURL() + c.Request.URL.Path
	if c.Query("page") != "" {
		s.apJSON(c, http.StatusOK, &as2.CollectionPage{
			ID:     collectionURI + "?page=true",
			Type:   as2.TypeCollectionPage,
			PartOf: collectionURI,
			Items:  as2.List{},
		})
		return
	}

	s.apJSON(c, http.StatusOK, &as2.Collection{
		ID:         collectionURI,
		Type:       as2.TypeCollection,
		TotalItems: 0,
		First:      collectionURI + "?page=true",
	})
}
