package web

import (
	"net/http"

	"github.com/avercourt/windlass/as2"
	"github.com/avercourt/windlass/domain"
	"github.com/avercourt/windlass/util"
	"github.com/gin-gonic/gin"
)

const outboxPageSize = 25

// handleOutbox serves the paginated outbox of Create activities,
// newest first. Without a page request it answers with collection
// metadata only; max/min cursors walk older/newer pages and are
// mutually exclusive.
func (s *Server) handleOutbox(c *gin.Context) {
	if c.Param("username") != s.conf.Conf.Username {
		apError(c, http.StatusNotFound, "User not found.")
		return
	}

	outboxURI := s.conf.ActorURL() + "/outbox"
	maxCursor := c.Query("max")
	minCursor := c.Query("min")

	if maxCursor != "" && minCursor != "" {
		apError(c, http.StatusBadRequest, "Cannot specify both min and max.")
		return
	}

	if c.Query("page") == "" && maxCursor == "" && minCursor == "" {
		err, total := s.db.CountPublishedArticles()
		if err != nil {
			s.log.Errorf("Web: outbox count failed: %v", err)
			apError(c, http.StatusInternalServerError, "Storage failure.")
			return
		}
		collection := as2.NewOrderedCollection(outboxURI, total)
		collection.First = outboxURI + "?page=true&max=" + util.MaxULID
		collection.Last = outboxURI + "?page=true&min=" + util.MinULID
		s.apJSON(c, http.StatusOK, collection)
		return
	}

	var err error
	var articles *[]domain.Article
	switch {
	case minCursor != "":
		if _, perr := util.ParseULID(minCursor); perr != nil {
			apError(c, http.StatusBadRequest, "Invalid min cursor.")
			return
		}
		err, articles = s.db.ReadArticlesNewerThan(minCursor, outboxPageSize, false)
		reverseArticles(articles)
	case maxCursor != "":
		if _, perr := util.ParseULID(maxCursor); perr != nil {
			apError(c, http.StatusBadRequest, "Invalid max cursor.")
			return
		}
		err, articles = s.db.ReadArticlesOlderThan(maxCursor, outboxPageSize, false)
	default:
		err, articles = s.db.ReadArticlesOlderThan(util.MaxULID, outboxPageSize, true)
	}
	if err != nil {
		s.log.Errorf("Web: outbox page read failed: %v", err)
		apError(c, http.StatusInternalServerError, "Storage failure.")
		return
	}

	page := as2.NewOrderedCollectionPage(pageID(c, outboxURI), outboxURI)
	if articles != nil && len(*articles) > 0 {
		newest := (*articles)[0]
		oldest := (*articles)[len(*articles)-1]
		page.Prev = outboxURI + "?page=true&min=" + newest.UID
		page.Next = outboxURI + "?page=true&max=" + oldest.UID

		for i := range *articles {
			create := as2.NewCreate(s.conf.ActorURL(), s.engine.ArticleObject(&(*articles)[i]))
			page.OrderedItems = append(page.OrderedItems, as2.ObjectNode(create.AsObject()))
		}
	}

	s.apJSON(c, http.StatusOK, page)
}

// pageID reconstructs the page's own id from the request.
func pageID(c *gin.Context, base string) string {
	if c.Request.URL.RawQuery == "" {
		return base
	}
	return base + "?" + c.Request.URL.RawQuery
}

func reverseArticles(articles *[]domain.Article) {
	if articles == nil {
		return
	}
	a := *articles
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}
