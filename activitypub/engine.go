package activitypub

import (
	"net/http"
	"sync"
	"time"

	"github.com/avercourt/windlass/util"
	"go.uber.org/zap"
)

const userAgent = "windlass/0.3 ActivityPub"

// Actor documents change rarely and fetching them is the expensive
// part of every delivery, so cache hard.
const actorCacheTTL = 72 * time.Hour

// Engine owns the federation protocol: inbound activity dispatch,
// outbound signing and delivery, and the actor cache both share.
type Engine struct {
	conf   *util.AppConfig
	log    *zap.SugaredLogger
	store  Store
	keys   *util.Keyring
	client *http.Client

	actors   *actorCache
	inflight *inflightSet
}

func NewEngine(conf *util.AppConfig, log *zap.SugaredLogger, store Store, keys *util.Keyring) *Engine {
	return &Engine{
		conf:     conf,
		log:      log,
		store:    store,
		keys:     keys,
		client:   &http.Client{Timeout: 30 * time.Second},
		actors:   newActorCache(actorCacheTTL),
		inflight: newInflightSet(),
	}
}

// userKeyID is the keyId our outbound signatures carry. It is derived
// from the public key PEM, so remote peers can recompute it.
func (e *Engine) userKeyID() string {
	return e.conf.ActorURL() + "#" + util.KeyFragment(e.keys.User.PublicPEM)
}

type actorCacheEntry struct {
	actor     *cachedActor
	fetchedAt time.Time
}

type cachedActor struct {
	ID           string
	Inbox        string
	SharedInbox  string
	DisplayName  string
	PublicKeyPEM string
}

type actorCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]actorCacheEntry
}

func newActorCache(ttl time.Duration) *actorCache {
	return &actorCache{ttl: ttl, entries: make(map[string]actorCacheEntry)}
}

func (c *actorCache) get(actorURI string) *cachedActor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[actorURI]
	if !ok || time.Since(entry.fetchedAt) > c.ttl {
		return nil
	}
	return entry.actor
}

func (c *actorCache) put(actorURI string, actor *cachedActor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[actorURI] = actorCacheEntry{actor: actor, fetchedAt: time.Now()}
}
