package activitypub

import (
	"strings"

	"github.com/avercourt/windlass/as2"
	"github.com/avercourt/windlass/domain"
	"github.com/avercourt/windlass/util"
)

// ArticleURI is the canonical id of an article's Article rendering.
func (e *Engine) ArticleURI(uid string) string {
	return e.conf.ActorURL() + "/articles/" + uid
}

// StatusURI is the id of the same article rendered as a Note, which is
// what microblogging servers display inline.
func (e *Engine) StatusURI(uid string) string {
	return e.conf.ActorURL() + "/statuses/" + uid
}

// ArticleObject renders an article as an AS2 Article addressed to the
// public and cc'd to the followers collection.
func (e *Engine) ArticleObject(a *domain.Article) *as2.Object {
	obj := e.baseObject(a)
	obj.ID = e.ArticleURI(a.UID)
	obj.Type = as2.TypeArticle
	obj.Name = a.Title
	obj.URL = as2.FromHref(e.conf.BaseURL() + "/" + a.Slug)
	return obj
}

// NoteObject renders the same article as a Note: title and link up
// front, since Note consumers ignore the name property.
func (e *Engine) NoteObject(a *domain.Article) *as2.Object {
	obj := e.baseObject(a)
	obj.ID = e.StatusURI(a.UID)
	obj.Type = as2.TypeNote
	link := e.conf.BaseURL() + "/" + a.Slug
	obj.Content = "<p><strong>" + a.Title + "</strong></p>" + util.RenderContentHTML(a.Body) +
		`<p><a href="` + link + `">` + link + "</a></p>"
	obj.URL = as2.FromHref(link)
	return obj
}

func (e *Engine) baseObject(a *domain.Article) *as2.Object {
	published := a.PublishedAt
	obj := &as2.Object{
		Content:      util.RenderContentHTML(a.Body),
		Summary:      a.Summary,
		MediaType:    "text/html",
		Published:    &published,
		Updated:      a.UpdatedAt,
		AttributedTo: as2.FromHref(e.conf.ActorURL()),
		To:           as2.FromHref(as2.PublicAudience),
		Cc:           as2.FromHref(e.conf.ActorURL() + "/followers"),
	}
	return obj
}

// articleUIDFromURI recovers a local article UID from an object IRI,
// accepting the statuses form, the articles form, and a bare trailing
// ULID. Returns "" when the IRI does not point at this instance.
func (e *Engine) articleUIDFromURI(objectURI string) string {
	prefix := e.conf.ActorURL() + "/"
	if !strings.HasPrefix(strings.ToLower(objectURI), strings.ToLower(prefix)) {
		return ""
	}
	rest := objectURI[len(prefix):]
	rest = strings.TrimPrefix(rest, "statuses/")
	rest = strings.TrimPrefix(rest, "articles/")
	rest = strings.SplitN(rest, "/", 2)[0]

	uid, err := util.ParseULID(rest)
	if err != nil {
		return ""
	}
	return uid
}
