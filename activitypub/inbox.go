package activitypub

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/avercourt/windlass/as2"
	"github.com/avercourt/windlass/domain"
	"github.com/avercourt/windlass/util"
)

// Sentinel id prefixes for audit entries whose payload gave us nothing
// better. The audit log never drops a delivery silently.
const (
	sentinelUnknown = "unknown-"
	sentinelNotObj  = "not-an-obj-"
	sentinelErr     = "err-"
)

// Reciprocal follow ids are remembered per remote actor so a later
// Undo can revoke the follow-back.
const recipKeyPrefix = "recip:"

// HandleInbox processes one inbound delivery. The caller has already
// committed to answering 202; everything in here is best effort and
// per-activity failures are logged, never surfaced to the remote peer.
func (e *Engine) HandleInbox(req *http.Request, body []byte) {
	var activity as2.Object
	decodeErr := json.Unmarshal(body, &activity)

	e.recordInbox(req, body, &activity, decodeErr)
	if decodeErr != nil {
		e.log.Warnf("Inbox: dropping undecodable payload from %s: %v", req.RemoteAddr, decodeErr)
		return
	}

	if !e.verifySignature(req) {
		if e.conf.Conf.RequireSignatures {
			e.log.Warnf("Inbox: dropping unverified %s from %s", activity.Type, activity.Actor.FirstHref())
			return
		}
		e.log.Infof("Inbox: processing unverified %s from %s", activity.Type, activity.Actor.FirstHref())
	}

	switch activity.Type {
	case as2.TypeFollow:
		e.handleFollow(&activity)
	case as2.TypeUndo:
		e.handleUndo(&activity)
	case as2.TypeAnnounce:
		e.handleInteraction(&activity, domain.InteractionAnnounce)
	case as2.TypeLike:
		e.handleInteraction(&activity, domain.InteractionLike)
	default:
		e.log.Infof("Inbox: logged unhandled %s from %s", activity.Type, activity.Actor.FirstHref())
	}
}

// recordInbox appends the audit row for a delivery, substituting
// sentinel ids when the payload was not an object or carried no id.
func (e *Engine) recordInbox(req *http.Request, body []byte, activity *as2.Object, decodeErr error) {
	entry := &domain.InboxEntry{
		UID:         util.NewULID(),
		Type:        "unknown",
		Body:        string(body),
		ContentType: req.Header.Get("Content-Type"),
		Origin:      requestOrigin(req),
		ReceivedAt:  time.Now().UTC(),
	}

	switch {
	case decodeErr != nil:
		// Nothing usable decoded; the sentinel fills both fields.
		entry.ActivityID = sentinelNotObj + entry.UID
		entry.Type = entry.ActivityID
	case activity.ID == "":
		entry.ActivityID = sentinelUnknown + entry.UID
	default:
		entry.ActivityID = activity.ID
	}

	if decodeErr == nil {
		if activity.Type != "" {
			entry.Type = activity.Type
		}
		entry.ActorURI = activity.Actor.FirstHref()
	}

	if err := e.store.AppendInboxEntry(entry); err != nil {
		e.log.Errorf("Inbox: audit append failed (%s): %v", sentinelErr+entry.UID, err)
	}
}

func (e *Engine) verifySignature(req *http.Request) bool {
	keyId, err := KeyIDFromRequest(req)
	if err != nil {
		e.log.Debugf("Inbox: no usable signature header: %v", err)
		return false
	}

	pem, err := e.PublicKeyForKeyID(keyId)
	if err != nil {
		e.log.Warnf("Inbox: could not resolve key %s: %v", keyId, err)
		return false
	}

	if _, err := VerifyRequest(req, pem); err != nil {
		e.log.Warnf("Inbox: %v", err)
		return false
	}
	return true
}

func (e *Engine) handleFollow(activity *as2.Object) {
	actorURI := activity.Actor.FirstHref()

	if !activity.Object.ContainsIRI(e.conf.ActorURL()) {
		e.log.Warnf("Inbox: Follow from %s targets %s, not us", actorURI, activity.Object.FirstHref())
		return
	}
	if actorURI == "" || activity.ID == "" {
		e.log.Warnf("Inbox: Follow without actor or id, dropping")
		return
	}

	displayName := actorURI
	if obj := activity.Actor.FirstObject(); obj != nil && obj.Name != "" {
		displayName = obj.Name
	}

	err, created := e.store.CreateFollower(&domain.Follower{
		UID:         util.NewULID(),
		ActivityID:  activity.ID,
		ActorURI:    actorURI,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		e.log.Errorf("Inbox: storing follower %s failed: %v", actorURI, err)
		return
	}
	if !created {
		e.log.Infof("Inbox: repeated Follow %s from %s, no new state", activity.ID, actorURI)
	}

	// Accept goes out either way; redelivery usually means our first
	// Accept was lost.
	accept := as2.NewAccept(e.activityURI(), e.conf.ActorURL(), activity)
	if err := e.EnqueueToActor(actorURI, accept, 0); err != nil {
		e.log.Warnf("Inbox: could not queue Accept for %s: %v", actorURI, err)
	}

	// Runs on redelivery too: the kv entry only exists once a
	// follow-back was actually queued, so a lost one gets retried.
	if e.conf.Conf.AutoReciprocate {
		e.reciprocateFollow(actorURI)
	}
}

func (e *Engine) reciprocateFollow(actorURI string) {
	err, existing := e.store.ReadKv(recipKeyPrefix + actorURI)
	if err != nil {
		e.log.Errorf("Inbox: reciprocal lookup for %s failed: %v", actorURI, err)
		return
	}
	if existing != "" {
		return
	}

	followID := e.activityURI()
	follow := as2.NewFollow(followID, e.conf.ActorURL(), actorURI)
	if err := e.EnqueueToActor(actorURI, follow, e.conf.Conf.ReciprocateDelay); err != nil {
		e.log.Warnf("Inbox: could not queue reciprocal Follow of %s: %v", actorURI, err)
		return
	}

	if err := e.store.PutKv(recipKeyPrefix+actorURI, followID); err != nil {
		e.log.Errorf("Inbox: storing reciprocal follow id failed: %v", err)
	}
}

func (e *Engine) handleUndo(activity *as2.Object) {
	actorURI := activity.Actor.FirstHref()

	inner := activity.Object.FirstObject()
	if inner == nil || inner.Type != as2.TypeFollow {
		e.log.Infof("Inbox: logged Undo of %v from %s", activity.Object.FirstHref(), actorURI)
		return
	}
	if !inner.Object.ContainsIRI(e.conf.ActorURL()) || inner.ID == "" {
		e.log.Warnf("Inbox: Undo{Follow} from %s with foreign or missing target", actorURI)
		return
	}

	err, deleted := e.store.DeleteFollowerByActivityID(inner.ID)
	if err != nil {
		e.log.Errorf("Inbox: removing follower for %s failed: %v", inner.ID, err)
		return
	}
	if !deleted {
		// An Undo can overtake its Follow on the wire; nothing to
		// remove is fine.
		e.log.Infof("Inbox: Undo for unknown Follow %s, no-op", inner.ID)
	}

	accept := as2.NewAccept(e.activityURI(), e.conf.ActorURL(), activity)
	if err := e.EnqueueToActor(actorURI, accept, 0); err != nil {
		e.log.Warnf("Inbox: could not queue Accept for %s: %v", actorURI, err)
	}

	if e.conf.Conf.AutoReciprocate {
		e.undoReciprocalFollow(actorURI)
	}
}

func (e *Engine) undoReciprocalFollow(actorURI string) {
	err, followID := e.store.ReadKv(recipKeyPrefix + actorURI)
	if err != nil {
		e.log.Errorf("Inbox: reciprocal lookup for %s failed: %v", actorURI, err)
		return
	}
	if followID == "" {
		return
	}

	undo := as2.NewUndoFollow(e.activityURI(), e.conf.ActorURL(), followID, actorURI)
	if err := e.EnqueueToActor(actorURI, undo, 0); err != nil {
		e.log.Warnf("Inbox: could not queue reciprocal Undo for %s: %v", actorURI, err)
		return
	}
	if err := e.store.DeleteKv(recipKeyPrefix + actorURI); err != nil {
		e.log.Errorf("Inbox: clearing reciprocal follow id failed: %v", err)
	}
}

func (e *Engine) handleInteraction(activity *as2.Object, kind string) {
	actorURI := activity.Actor.FirstHref()

	uid := e.articleUIDFromURI(activity.Object.FirstHref())
	if uid == "" {
		e.log.Infof("Inbox: %s from %s references no local article, dropping", activity.Type, actorURI)
		return
	}

	err, article := e.store.ReadArticleByUID(uid)
	if err != nil || article == nil || !article.Published {
		e.log.Infof("Inbox: %s from %s for unknown article %s, dropping", activity.Type, actorURI, uid)
		return
	}

	if activity.ID == "" {
		e.log.Warnf("Inbox: %s without id from %s, dropping", activity.Type, actorURI)
		return
	}

	err, created := e.store.CreateInteraction(&domain.Interaction{
		ID:         activity.ID,
		ArticleUID: article.UID,
		Kind:       kind,
		ActorURI:   actorURI,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		e.log.Errorf("Inbox: storing %s failed: %v", kind, err)
		return
	}
	if !created {
		e.log.Infof("Inbox: repeated %s %s, no new state", kind, activity.ID)
	}
}

// activityURI mints an id for activities we originate.
func (e *Engine) activityURI() string {
	return e.conf.BaseURL() + "/activities/" + util.NewULID()
}

// requestOrigin reports the sender's apparent network origin: the
// first X-Forwarded-For hop when a proxy fronts us, the peer address
// otherwise.
func requestOrigin(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	return req.RemoteAddr
}
