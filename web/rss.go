package web

import (
	"net/http"

	"github.com/avercourt/windlass/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

const feedPageSize = 25

// handleFeed serves the blog's RSS feed of published articles.
func (s *Server) handleFeed(c *gin.Context) {
	err, articles := s.db.ReadArticlesOlderThan(util.MaxULID, feedPageSize, true)
	if err != nil {
		s.log.Errorf("Web: feed read failed: %v", err)
		c.String(http.StatusInternalServerError, "feed unavailable")
		return
	}

	author := s.conf.Conf.DisplayName
	if author == "" {
		author = s.conf.Conf.Username
	}

	feed := &feeds.Feed{
		Title:       s.conf.Conf.SiteTitle,
		Link:        &feeds.Link{Href: s.conf.BaseURL()},
		Description: s.conf.Conf.Bio,
		Author:      &feeds.Author{Name: author},
	}

	if articles != nil {
		for _, article := range *articles {
			link := s.conf.BaseURL() + "/" + article.Slug
			item := &feeds.Item{
				Id:          s.engine.ArticleURI(article.UID),
				Title:       article.Title,
				Link:        &feeds.Link{Href: link},
				Description: article.Summary,
				Content:     util.RenderContentHTML(article.Body),
				Author:      &feeds.Author{Name: author},
				Created:     article.PublishedAt,
			}
			if article.UpdatedAt != nil {
				item.Updated = *article.UpdatedAt
			}
			feed.Items = append(feed.Items, item)
			if feed.Created.Before(article.PublishedAt) {
				feed.Created = article.PublishedAt
			}
		}
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.log.Errorf("Web: feed render failed: %v", err)
		c.String(http.StatusInternalServerError, "feed unavailable")
		return
	}

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
