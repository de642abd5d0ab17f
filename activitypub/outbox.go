package activitypub

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/avercourt/windlass/as2"
	"github.com/avercourt/windlass/domain"
	"github.com/google/uuid"
)

// Deliver signs and POSTs one serialized activity to a remote inbox.
// Success means the remote answered 2xx; everything else is an error
// for the queue to retry.
func (e *Engine) Deliver(inboxURI string, activityJSON []byte) error {
	req, err := http.NewRequest("POST", inboxURI, bytes.NewReader(activityJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", as2.ContentType)
	req.Header.Set("Accept", as2.ContentType)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", req.URL.Host)

	if destDomain, err := extractDomain(inboxURI); err == nil {
		if header, err := e.collectionSyncHeader(destDomain); err == nil {
			req.Header.Set("Collection-Synchronization", header)
		} else {
			e.log.Warnf("Outbox: could not build sync header for %s: %v", destDomain, err)
		}
	}

	if err := SignRequest(req, activityJSON, e.keys.User.Private, e.userKeyID()); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote server returned status: %d", resp.StatusCode)
	}

	e.log.Infof("Outbox: delivered to %s (status: %d)", inboxURI, resp.StatusCode)
	return nil
}

// DeliverToActor resolves the actor's inbox and delivers immediately.
// Returns false when resolution or delivery fails; federation failures
// never propagate to the caller as errors.
func (e *Engine) DeliverToActor(actorURI string, activity any) bool {
	inboxURI, err := e.ResolveInbox(actorURI)
	if err != nil {
		e.log.Warnf("Outbox: could not resolve inbox of %s: %v", actorURI, err)
		return false
	}

	body, err := as2.WrapContext(activity)
	if err != nil {
		e.log.Errorf("Outbox: could not serialize activity: %v", err)
		return false
	}

	if err := e.Deliver(inboxURI, body); err != nil {
		e.log.Warnf("Outbox: delivery to %s failed: %v", inboxURI, err)
		return false
	}
	return true
}

// EnqueueToActor resolves the actor's inbox and schedules a durable
// delivery after the given delay.
func (e *Engine) EnqueueToActor(actorURI string, activity any, delay time.Duration) error {
	inboxURI, err := e.ResolveInbox(actorURI)
	if err != nil {
		return fmt.Errorf("could not resolve inbox of %s: %w", actorURI, err)
	}
	return e.enqueue(inboxURI, activity, delay)
}

func (e *Engine) enqueue(inboxURI string, activity any, delay time.Duration) error {
	body, err := as2.WrapContext(activity)
	if err != nil {
		return fmt.Errorf("could not serialize activity: %w", err)
	}

	return e.store.EnqueueDelivery(&domain.DeliveryQueueItem{
		Id:           uuid.New(),
		InboxURI:     inboxURI,
		ActivityJSON: string(body),
		Attempts:     0,
		NextRetryAt:  time.Now().Add(delay),
		CreatedAt:    time.Now(),
	})
}

// FanOutCreate queues a Create for a freshly published article to
// every follower. The publish action that triggered it has already
// succeeded; queueing failures are logged and dropped.
func (e *Engine) FanOutCreate(article *domain.Article) {
	obj := e.ArticleObject(article)
	e.fanOut(as2.NewCreate(e.conf.ActorURL(), obj))
}

// FanOutUpdate queues an Update for an edited article.
func (e *Engine) FanOutUpdate(article *domain.Article) {
	obj := e.ArticleObject(article)
	e.fanOut(as2.NewUpdate(e.conf.ActorURL(), obj))
}

func (e *Engine) fanOut(activity *as2.Activity) {
	err, followers := e.store.ReadAllFollowers()
	if err != nil {
		e.log.Errorf("Outbox: failed to read followers for fan-out: %v", err)
		return
	}
	if followers == nil || len(*followers) == 0 {
		return
	}

	// Followers on the same instance usually share one inbox; queue
	// each inbox URI once.
	seen := make(map[string]bool)
	queued := 0
	for _, follower := range *followers {
		inboxURI, err := e.ResolveSharedInbox(follower.ActorURI)
		if err != nil {
			e.log.Warnf("Outbox: skipping %s, inbox resolution failed: %v", follower.ActorURI, err)
			continue
		}
		if seen[inboxURI] {
			continue
		}
		seen[inboxURI] = true
		if err := e.enqueue(inboxURI, activity, 0); err != nil {
			e.log.Warnf("Outbox: failed to queue delivery to %s: %v", inboxURI, err)
			continue
		}
		queued++
	}

	e.log.Infof("Outbox: queued %s %s to %d inboxes for %d followers", activity.Type, activity.ID, queued, len(*followers))
}
