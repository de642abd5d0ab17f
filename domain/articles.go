package domain

import (
	"fmt"
	"time"
)

// Article is one blog entry. UID is a ULID and doubles as the
// pagination cursor, so creation order and sort order agree.
type Article struct {
	UID         string
	Slug        string
	Title       string
	Summary     string
	Body        string
	Published   bool
	PublishedAt time.Time
	UpdatedAt   *time.Time // nil until the first edit
}

func (a *Article) ToString() string {
	return fmt.Sprintf("\n\tUID: %s \n\tSlug: %s \n\tTitle: %s \n\tPublishedAt: %s", a.UID, a.Slug, a.Title, a.PublishedAt)
}
