package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Follower is an accepted remote follow. ActivityID is the id of the
// remote Follow activity and is what an Undo later refers to.
type Follower struct {
	UID         string // ULID, pagination cursor
	ActivityID  string
	ActorURI    string
	DisplayName string
	CreatedAt   time.Time
}

// Domain returns the follower's host, or "" when the actor URI does
// not parse.
func (f *Follower) Domain() string {
	u, err := url.Parse(f.ActorURI)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// InboxEntry is one row of the append-only delivery audit log. Every
// post that reaches an inbox route lands here, including malformed
// ones, which get a sentinel ActivityID instead of a real one.
type InboxEntry struct {
	UID         string // ULID
	ActivityID  string
	Type        string
	ActorURI    string
	Body        string
	ContentType string
	Origin      string // X-Forwarded-For when present, remote addr otherwise
	ReceivedAt  time.Time
}

// Interaction kinds mirror the activity types that produce them.
const (
	InteractionLike     = "like"
	InteractionAnnounce = "announce"
)

// Interaction records a remote Like or Announce of an article. ID is
// the remote activity id, which makes redelivery a natural no-op.
type Interaction struct {
	ID         string
	ArticleUID string
	Kind       string
	ActorURI   string
	CreatedAt  time.Time
}

// DeliveryQueueItem represents an item in the delivery queue
type DeliveryQueueItem struct {
	Id           uuid.UUID
	InboxURI     string
	ActivityJSON string // The complete activity to deliver
	Attempts     int
	NextRetryAt  time.Time
	CreatedAt    time.Time
}
