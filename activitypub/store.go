package activitypub

import (
	"time"

	"github.com/avercourt/windlass/domain"
	"github.com/google/uuid"
)

// Store is the slice of the database the federation engine touches.
// Declared here so the state machine can run against a mock in tests.
type Store interface {
	ReadArticleByUID(uid string) (error, *domain.Article)

	CreateFollower(f *domain.Follower) (error, bool)
	DeleteFollowerByActivityID(activityID string) (error, bool)
	ReadAllFollowers() (error, *[]domain.Follower)

	CreateInteraction(i *domain.Interaction) (error, bool)
	AppendInboxEntry(e *domain.InboxEntry) error

	PutKv(key, value string) error
	ReadKv(key string) (error, string)
	DeleteKv(key string) error

	EnqueueDelivery(item *domain.DeliveryQueueItem) error
	ReadPendingDeliveries(limit int) (error, *[]domain.DeliveryQueueItem)
	UpdateDeliveryAttempt(id uuid.UUID, attempts int, nextRetry time.Time) error
	DeleteDelivery(id uuid.UUID) error
}
