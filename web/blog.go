package web

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/avercourt/windlass/util"
	"github.com/gin-gonic/gin"
)

const blogIndexPageSize = 50

// BlogTemplates renders the minimal public pages. The blog surface is
// deliberately plain; federation is the product here.
var BlogTemplates = template.Must(template.New("blog").Parse(`
{{define "index"}}<!DOCTYPE html>
<html lang="{{.Language}}">
<head><meta charset="utf-8"><title>{{.SiteTitle}}</title>
<link rel="alternate" type="application/rss+xml" href="/feed"></head>
<body>
<h1>{{.SiteTitle}}</h1>
{{if .Bio}}<p>{{.Bio}}</p>{{end}}
<ul>
{{range .Articles}}<li><a href="/{{.Slug}}">{{.Title}}</a> <small>{{.Published}}</small></li>
{{end}}</ul>
</body>
</html>{{end}}

{{define "article"}}<!DOCTYPE html>
<html lang="{{.Language}}">
<head><meta charset="utf-8"><title>{{.Title}} - {{.SiteTitle}}</title></head>
<body>
<p><a href="/">{{.SiteTitle}}</a></p>
<h1>{{.Title}}</h1>
<small>{{.Published}}</small>
{{.Content}}
</body>
</html>{{end}}
`))

type articleListEntry struct {
	Slug      string
	Title     string
	Published string
}

// handleBlogIndex serves the article list, negotiating federation
// lookups away to the actor and webfinger endpoints.
func (s *Server) handleBlogIndex(c *gin.Context) {
	if wantsAS2(c) {
		c.Redirect(http.StatusFound, "/api/users/"+s.conf.Conf.Username)
		return
	}
	if wantsJRD(c) {
		acct := "acct:" + s.conf.Conf.Username + "@" + s.conf.Conf.PublicHost
		c.Redirect(http.StatusFound, "/.well-known/webfinger?resource="+url.QueryEscape(acct))
		return
	}

	err, articles := s.db.ReadArticlesOlderThan(util.MaxULID, blogIndexPageSize, true)
	if err != nil {
		s.log.Errorf("Web: index read failed: %v", err)
		c.String(http.StatusInternalServerError, "unavailable")
		return
	}

	var entries []articleListEntry
	if articles != nil {
		for _, a := range *articles {
			entries = append(entries, articleListEntry{
				Slug:      a.Slug,
				Title:     a.Title,
				Published: a.PublishedAt.Format("Jan 2, 2006"),
			})
		}
	}

	c.HTML(http.StatusOK, "index", gin.H{
		"SiteTitle": s.conf.Conf.SiteTitle,
		"Bio":       s.conf.Conf.Bio,
		"Language":  s.conf.Conf.Language,
		"Articles":  entries,
	})
}

// handleBlogArticle serves one published article as a page, or hands
// AS2 clients the canonical object URI.
func (s *Server) handleBlogArticle(c *gin.Context) {
	err, article := s.db.ReadArticleBySlug(c.Param("slug"))
	if err != nil || article == nil || !article.Published {
		c.String(http.StatusNotFound, "not found")
		return
	}

	if wantsAS2(c) {
		c.Redirect(http.StatusFound, s.engine.ArticleURI(article.UID))
		return
	}

	c.HTML(http.StatusOK, "article", gin.H{
		"SiteTitle": s.conf.Conf.SiteTitle,
		"Language":  s.conf.Conf.Language,
		"Title":     article.Title,
		"Published": article.PublishedAt.Format("Jan 2, 2006"),
		"Content":   template.HTML(util.RenderContentHTML(article.Body)),
	})
}

func wantsJRD(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/jrd+json")
}
